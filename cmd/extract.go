package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spigell/skillmatrix/internal/extraction"
	"github.com/spigell/skillmatrix/internal/ingest"
	"github.com/spigell/skillmatrix/internal/logger"
	"go.uber.org/zap"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file|-]",
	Short: "Extract a skill matrix from a job description",
	Long: "Reads a job description from a file (text, HTML, PDF, DOCX, ODT, RTF) or stdin " +
		"and prints the skill matrix as JSON.",
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		extract(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().Bool("html", false, "treat the input as HTML even without markup detection")
	extractCmd.Flags().BoolP("pretty", "p", false, "indent the JSON output")
	extractCmd.Flags().BoolP("interactive", "i", false, "pick the strategy from a prompt")
}

func extract(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	baseLogger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	runLog := logger.WithRequestID(baseLogger, uuid.NewString())

	config, err := getConfig()
	if err != nil {
		runLog.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	runLog.Debug(fmt.Sprintf("starting with config: \n %s", redact(pretty)))

	strategy := config.Strategy
	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		strategy, err = promptStrategy()
		if err != nil {
			runLog.Fatal("choosing a strategy", zap.Error(err))
		}
	}

	mode, err := extraction.ParseMode(strategy)
	if err != nil {
		runLog.Fatal("parsing strategy", zap.Error(err))
	}

	forceHTML, _ := cmd.Flags().GetBool("html")
	document, err := readDocument(cmd.InOrStdin(), args, forceHTML)
	if err != nil {
		runLog.Fatal("reading job description", zap.Error(err))
	}
	if strings.TrimSpace(document) == "" {
		runLog.Warn("job description is empty")
	}

	pipeline, err := newPipeline(ctx, config, mode, runLog)
	if err != nil {
		runLog.Fatal("preparing strategies", zap.Error(err))
	}

	result, err := pipeline.Extract(ctx, document)
	if err != nil {
		runLog.Fatal("extraction failed", zap.Error(err))
	}

	if result.Degraded() {
		runLog.Warn("preferred strategy failed, falling back",
			zap.String(logger.FieldStrategy, result.Strategy),
			zap.String("error", result.FailureMessage()),
		)
	}

	indent, _ := cmd.Flags().GetBool("pretty")
	if err := writeMatrix(cmd.OutOrStdout(), result, indent); err != nil {
		runLog.Fatal("writing result", zap.Error(err))
	}
}

// readDocument loads the job description from the file argument, or from
// stdin when no argument or "-" is given.
func readDocument(stdin io.Reader, args []string, forceHTML bool) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return ingest.Text(string(raw), forceHTML)
	}

	return ingest.FromFile(args[0], forceHTML)
}

func writeMatrix(out io.Writer, result *extraction.Result, indent bool) error {
	enc := json.NewEncoder(out)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result.Matrix)
}

func promptStrategy() (string, error) {
	items := make([]string, 0, len(extraction.Modes))
	for _, m := range extraction.Modes {
		items = append(items, string(m))
	}

	prompt := promptui.Select{
		Label: "Extraction strategy",
		Items: items,
	}

	_, choice, err := prompt.Run()
	return choice, err
}

// redact masks the inline api key in the debug config dump.
func redact(config []byte) string {
	key := strings.TrimSpace(viper.GetString("ai.gemini.api-key"))
	if key == "" {
		return string(config)
	}
	return strings.ReplaceAll(string(config), key, "***")
}
