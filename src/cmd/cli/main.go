package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screen-ocr-translate/src/config"
	"screen-ocr-translate/src/llm"
	"screen-ocr-translate/src/present"
	"screen-ocr-translate/src/runtimeinit"
	"screen-ocr-translate/src/screenshot"
	"screen-ocr-translate/src/settings"
	"screen-ocr-translate/src/singleinstance"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

const (
	formatCard = "card"
	formatText = "text"
	formatJSON = "json"
	formatHTML = "html"
)

type cliOptions struct {
	filePath     string
	format       string
	jsonOutput   bool
	verbose      bool
	apiKeyPath   string
	settingsPath string
	lang         string
	mode         string
	wait         bool
}

// recognizer is the part of llm.Client the recognize command needs.
type recognizer interface {
	Recognize(ctx context.Context, req llm.Request) (llm.Result, error)
}

// Output is the JSON document printed by --json.
type Output struct {
	Source    string  `json:"source"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
	llm.Result
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"ocr-tool"}
	}
	cmd := newRootCmd(&cliOptions{})
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ocr-tool",
		Short:         "Read and translate the text in screenshots",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(opts.verbose)
		},
		// A bare --file keeps the original one-shot behaviour.
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.filePath == "" {
				return cmd.Help()
			}
			return runRecognize(cmd, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	pf.StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	pf.StringVar(&opts.settingsPath, "settings", "", "Path to the settings file")
	addOutputFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG file (use '-' for stdin)")

	cmd.AddCommand(
		newRecognizeCmd(opts),
		newTranslateCmd(opts),
		newCaptureCmd(opts),
		newSettingsCmd(opts),
	)
	return cmd
}

func addOutputFlags(cmd *cobra.Command, opts *cliOptions) {
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().StringVar(&opts.format, "format", formatCard, "Output format: card, text, json or html")
	cmd.Flags().StringVar(&opts.lang, "lang", "", "Target language code (defaults to the targetLang setting)")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Translation mode: vocabulary or full (defaults to the translationMode setting)")
}

func newRecognizeCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recognize",
		Short: "Recognize and translate the text in a PNG image",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecognize(cmd, opts)
		},
	}
	addOutputFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG file (use '-' for stdin)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newTranslateCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate text given as arguments or on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "" {
				data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxFileSize))
				if err != nil {
					return fmt.Errorf("failed to read from stdin: %w", err)
				}
				text = string(data)
			}
			if strings.TrimSpace(text) == "" {
				return errors.New("nothing to translate")
			}
			ctx := commandContext(cmd)
			rt, err := bootstrap(ctx, opts)
			if err != nil {
				return err
			}
			s := rt.Settings.Load()
			out, err := rt.ClientFor(s).Translate(ctx, text, targetLang(opts, s))
			if err != nil {
				return fmt.Errorf("translation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.lang, "lang", "", "Target language code (defaults to the targetLang setting)")
	return cmd
}

func newCaptureCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Ask the running app to start a region capture",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = config.LoadWithOptions(loadOptions(opts))
			return runCapture(cmd, singleinstance.NewClient(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.wait, "wait", false, "Wait for the result and print it")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().StringVar(&opts.format, "format", formatCard, "Output format: card, text, json or html")
	return cmd
}

// captureClient is the part of singleinstance.Client the capture command needs.
type captureClient interface {
	TryCapture(ctx context.Context, wait bool) (bool, llm.Result, error)
}

func runCapture(cmd *cobra.Command, client captureClient, opts *cliOptions) error {
	ctx := commandContext(cmd)
	start := time.Now()
	delegated, res, err := client.TryCapture(ctx, opts.wait)
	if err != nil {
		return fmt.Errorf("capture failed: %w", err)
	}
	if !delegated {
		return errors.New("screen-ocr-translate is not running")
	}
	if !opts.wait {
		log.Printf("Capture started in the running app")
		return nil
	}
	return writeResult(cmd.OutOrStdout(), res, outputFormat(opts), "", "capture", time.Since(start))
}

func runRecognize(cmd *cobra.Command, opts *cliOptions) error {
	data, err := readImage(cmd.InOrStdin(), opts.filePath)
	if err != nil {
		return err
	}
	log.Printf("[verbose] Read %d bytes", len(data))

	ctx := commandContext(cmd)
	rt, err := bootstrap(ctx, opts)
	if err != nil {
		return err
	}
	s := rt.Settings.Load()
	lang := targetLang(opts, s)
	mode := llm.ParseMode(s.TranslationMode)
	if opts.mode != "" {
		mode = llm.ParseMode(opts.mode)
	}
	log.Printf("[verbose] Model=%s, target=%s, mode=%s", rt.Config.Model, lang, mode)

	start := time.Now()
	res, err := recognizeImage(ctx, rt.ClientFor(s), data, lang, mode)
	elapsed := time.Since(start)
	if err != nil {
		log.Printf("[verbose] Recognition failed after %v: %v", elapsed, err)
		return err
	}
	log.Printf("[verbose] Recognition completed in %v", elapsed)
	return writeResult(cmd.OutOrStdout(), res, outputFormat(opts), lang, opts.filePath, elapsed)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func bootstrap(ctx context.Context, opts *cliOptions) (*runtimeinit.Runtime, error) {
	rt, err := runtimeinit.Bootstrap(ctx, runtimeinit.Options{
		LoadOptions: loadOptions(opts),
		SkipPing:    true,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[verbose] Effective API key path: %s", rt.Config.APIKeyPath)
	if rt.APIKey() == "" {
		return nil, fmt.Errorf("GROQ_API_KEY not found. Checked key file %s, the GROQ_API_KEY env var and the apiKey setting", rt.Config.APIKeyPath)
	}
	return rt, nil
}

func loadOptions(opts *cliOptions) config.LoadOptions {
	return config.LoadOptions{
		APIKeyPathOverride:   opts.apiKeyPath,
		SettingsPathOverride: opts.settingsPath,
	}
}

func setupLogging(verbose bool) {
	if verbose {
		log.SetOutput(os.Stderr)
		return
	}
	log.SetOutput(io.Discard)
}

func targetLang(opts *cliOptions, s settings.Settings) string {
	if opts.lang != "" {
		return opts.lang
	}
	return s.TargetLang
}

func outputFormat(opts *cliOptions) string {
	if opts.jsonOutput {
		return formatJSON
	}
	return opts.format
}

func readImage(stdin io.Reader, filePath string) ([]byte, error) {
	var data []byte
	var err error
	if filePath == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
		}
	}
	if len(data) == 0 {
		return nil, errors.New("input file is empty")
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	return data, nil
}

func recognizeImage(ctx context.Context, r recognizer, data []byte, lang string, mode llm.Mode) (llm.Result, error) {
	if !screenshot.IsPNG(data) {
		return llm.Result{}, errors.New("input is not a valid PNG file (invalid magic number)")
	}
	if _, err := screenshot.Decode(data); err != nil {
		return llm.Result{}, fmt.Errorf("input is not a valid PNG file: %w", err)
	}
	res, err := r.Recognize(ctx, llm.Request{
		ImageURI:   screenshot.DataURI(data),
		TargetLang: lang,
		Mode:       mode,
	})
	if err != nil {
		return llm.Result{}, fmt.Errorf("recognition failed: %w", err)
	}
	return res, nil
}

func writeResult(w io.Writer, res llm.Result, format, lang, source string, elapsed time.Duration) error {
	card := present.NewCard(res, lang, false)
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		out := Output{
			Source:    source,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Duration:  elapsed.Seconds(),
			Result:    res,
		}
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		return nil
	case formatText:
		_, err := fmt.Fprintln(w, card.Text())
		return err
	case formatHTML:
		html, err := present.RenderHTML(card)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, html)
		return err
	case formatCard, "":
		_, err := fmt.Fprintln(w, newRenderer().Card(card))
		return err
	}
	return fmt.Errorf("unknown output format %q", format)
}

// normalizeLegacyArgs maps single-dash long flags to the GNU form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	normalized := make([]string, len(args))
	copy(normalized, args)
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range legacyFlags {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}
	return normalized
}

var legacyFlags = []string{"file", "json", "verbose", "api-key-path", "settings", "format", "lang", "mode", "wait"}
