package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lenslabs/fieldlens/internal/result"
)

var (
	queryAggregate  string
	queryClass      string
	queryMethod     string
	queryRepoMethod string
)

var queryCmd = &cobra.Command{
	Use:   "query <document>",
	Short: "Look up the fields a caller requires from an analysis document",
	Example: `  # Fields Handler.handle needs when loading Goods, any repository method
  fieldlens query analysis.json --aggregate com.shop.Goods \
      --caller-class com.shop.Handler --caller-method handle

  # Restricted to one repository method overload
  fieldlens query analysis.json --aggregate com.shop.Goods \
      --caller-class com.shop.Handler --caller-method handle \
      --repository-method "findByIdOrErr(1)"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := result.Open(args[0])
		if !store.IsAnalysisAvailable() {
			fmt.Fprintf(os.Stderr, "analysis unavailable: %v\n", store.LoadErr())
			return nil
		}

		fields := store.GetRequiredFields(queryAggregate, queryClass, queryMethod, queryRepoMethod)
		for _, f := range fields {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryAggregate, "aggregate", "", "qualified aggregate root class")
	queryCmd.Flags().StringVar(&queryClass, "caller-class", "", "qualified caller class")
	queryCmd.Flags().StringVar(&queryMethod, "caller-method", "", "caller method name")
	queryCmd.Flags().StringVar(&queryRepoMethod, "repository-method", "", "repository method name or name+descriptor (default: all)")
	_ = queryCmd.MarkFlagRequired("aggregate")
	_ = queryCmd.MarkFlagRequired("caller-class")
	_ = queryCmd.MarkFlagRequired("caller-method")
	rootCmd.AddCommand(queryCmd)
}
