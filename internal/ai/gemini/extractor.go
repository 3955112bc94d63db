package gemini

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/skillmatrix/internal/ai"
	"github.com/spigell/skillmatrix/internal/matrix"
	"github.com/spigell/skillmatrix/internal/utils"
	"go.uber.org/zap"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

//go:embed prompt.md
var systemTemplate string

//go:embed repair.md
var repairTemplate string

const (
	defaultMaxLogLength = 200
	requestTemplate     = "Job Description:\n\"\"\"\n{{JOB_DESCRIPTION}}\n\"\"\"\nReturn only valid JSON."
)

// Attempter builds extraction and repair prompts and sends them to Gemini.
type Attempter struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

// NewAttempter creates an Attempter. A non-positive maxLogLength uses the default.
func NewAttempter(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Attempter {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Attempter{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// NewExtractor wires a Generator into the generic repair loop.
func NewExtractor(generator contentGenerator, maxAttempts, maxLogLength int, logger *zap.Logger) *ai.RepairLoop {
	return ai.NewRepairLoop(NewAttempter(generator, maxLogLength, logger), ai.RepairOptions{
		Provider:     Provider,
		Model:        generator.Model(),
		MaxAttempts:  maxAttempts,
		MaxLogLength: maxLogLength,
		Logger:       logger,
	})
}

// Attempt implements ai.Attempter.
func (a *Attempter) Attempt(ctx context.Context, document string, previous *ai.Attempt) (string, error) {
	if a == nil || a.generator == nil {
		return "", fmt.Errorf("gemini attempter is not initialized")
	}

	system := buildSystemPrompt()
	message := buildRequest(document)
	if previous != nil {
		message = buildRepairRequest(document, previous)
	}

	a.logger.Debug("gemini generate content request",
		zap.Bool("repair", previous != nil),
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
		zap.String("prompt_preview", utils.TruncateForLog(message, a.maxLogLen)),
	)

	return a.generator.GenerateContent(ctx, system, message)
}

func buildSystemPrompt() string {
	template := systemTemplate
	if strings.TrimSpace(template) == "" {
		template = "Return a JSON object matching this schema:\n{{SCHEMA_JSON}}"
	}
	return strings.ReplaceAll(template, "{{SCHEMA_JSON}}", matrix.SchemaJSON())
}

func buildRequest(document string) string {
	return strings.ReplaceAll(requestTemplate, "{{JOB_DESCRIPTION}}", strings.TrimSpace(document))
}

func buildRepairRequest(document string, previous *ai.Attempt) string {
	violations := "- (root): output could not be parsed"
	if len(previous.Violations) > 0 {
		lines := make([]string, 0, len(previous.Violations))
		for _, v := range previous.Violations {
			lines = append(lines, fmt.Sprintf("- %s: %s", v.Path, v.Message))
		}
		violations = strings.Join(lines, "\n")
	}

	return strings.NewReplacer(
		"{{ATTEMPT}}", strconv.Itoa(previous.Number),
		"{{VIOLATIONS}}", violations,
		"{{PREVIOUS_RESPONSE}}", strings.TrimSpace(previous.Raw),
		"{{JOB_DESCRIPTION}}", strings.TrimSpace(document),
	).Replace(repairTemplate)
}
