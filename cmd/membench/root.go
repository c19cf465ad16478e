package main

import (
	"github.com/spf13/cobra"
)

// globalFlags holds the persistent flags every subcommand shares.
type globalFlags struct {
	benchmarksDir string
	providersDir  string
	checkpointDir string
	dbDSN         string
	redisAddr     string
	ollamaHost    string
	bedrockRegion string
	judgeModel    string
	strictRegistries bool
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "membench",
		Short: "Benchmark harness for memory/retrieval providers",
		Long: `membench drives one or more retrieval providers through a family of
question-answering and code-retrieval benchmarks, scores each response with
pluggable metrics, and persists reproducible results.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.benchmarksDir, "benchmarks-dir", "configs/benchmarks", "directory of benchmark config YAML files")
	cmd.PersistentFlags().StringVar(&flags.providersDir, "providers-dir", "configs/providers", "directory of provider config YAML files")
	cmd.PersistentFlags().StringVar(&flags.checkpointDir, "checkpoint-dir", "checkpoints", "root directory for per-run checkpoint files")
	cmd.PersistentFlags().StringVar(&flags.dbDSN, "db", "", "Postgres connection string for the results store (required by results/export/table)")
	cmd.PersistentFlags().StringVar(&flags.redisAddr, "redis-addr", "", "Redis address to register the redis provider adapter (unset disables it)")
	cmd.PersistentFlags().StringVar(&flags.ollamaHost, "ollama-host", "http://localhost:11434", "Ollama host for the ollama llm backend")
	cmd.PersistentFlags().StringVar(&flags.bedrockRegion, "bedrock-region", "", "AWS region for the bedrock llm backend (empty uses the AWS SDK's default resolution chain)")
	cmd.PersistentFlags().StringVar(&flags.judgeModel, "judge-model", "anthropic/claude-3-5-sonnet-20241022", "default judge model for sealed QA packs")
	cmd.PersistentFlags().BoolVar(&flags.strictRegistries, "strict", true, "fail on registry name/alias conflicts instead of first-wins")

	cmd.AddCommand(newListCommand(flags))
	cmd.AddCommand(newDescribeCommand(flags))
	cmd.AddCommand(newDownloadCommand())
	cmd.AddCommand(newEvalCommand(flags))
	cmd.AddCommand(newResultsCommand(flags))
	cmd.AddCommand(newExportCommand(flags))
	cmd.AddCommand(newTableCommand(flags))

	return cmd
}
