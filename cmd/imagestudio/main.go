// imagestudio はコマンドラインから Gemini で画像を生成する CLI です。
//
// 使用方法:
//
//	imagestudio -prompt "a lighthouse at dusk" -resolution 2K -out lighthouse.png
//	imagestudio -prompt "portrait" -ref ./face.jpg -style cinematic
//	imagestudio -content ./photo.png -style-image https://example.com/painting.jpg
//	imagestudio -prompt "same scene at night" -ref gs://my-bucket/day.png
//	imagestudio -list
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/gemini-image-studio/internal/config"
	"github.com/shouni/gemini-image-studio/pkg/adapters"
	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/generator"
	"github.com/shouni/gemini-image-studio/pkg/metrics"
	"github.com/shouni/gemini-image-studio/pkg/prompt"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

const metricsNamespace = "imagestudio"

// cliOptions はコマンドライン引数の解析結果です。
type cliOptions struct {
	prompt     string
	negative   string
	aspect     string
	resolution string
	preset     string

	environment string
	character   string
	camera      string
	mood        string
	technical   string

	seed       *int64
	creativity *float64
	raw        bool
	enhance    bool

	reference  string
	content    string
	styleImage string

	out     string
	envFile string
	list    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "imagestudio: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.list {
		printCatalog(stdout, prompt.DefaultCatalog())
		return nil
	}

	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	collector := metrics.NewCollector(metricsNamespace, nil)
	if cfg.MetricsFile != "" {
		defer func() {
			if err := collector.WriteTextfile(cfg.MetricsFile); err != nil {
				logger.Warn("メトリクスを書き出せませんでした", "path", cfg.MetricsFile, "error", err)
			}
		}()
	}

	gen, err := generator.NewGeminiGenerator(generator.Options{
		Credentials:      credentials(cfg),
		NewBackend:       adapters.NewBackendFactory(),
		NewTextGenerator: adapters.NewTextGeneratorFactory(gemini.Config{
			InitialDelay: cfg.BackoffUnit,
			MaxDelay:     4 * cfg.BackoffUnit,
		}),
		Models: generator.Models{
			High:     cfg.HighModel,
			Standard: cfg.StandardModel,
			Enhance:  cfg.EnhanceModel,
		},
		MaxRetries:  &cfg.MaxRetries,
		BackoffUnit: cfg.BackoffUnit,
		Jitter:      generator.UniformJitter(cfg.MaxJitter),
		Observer:    collector,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("ジェネレーターの初期化に失敗しました: %w", err)
	}

	reader, closeReader, err := openGCSReader(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeReader(); err != nil {
			logger.Warn("GCS クライアントのクローズに失敗しました", "error", err)
		}
	}()

	loader := adapters.NewAssetLoader(adapters.AssetLoaderConfig{
		HTTPClient:      httpkit.New(cfg.FetchTimeout),
		Reader:          reader,
		Cache:           cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		CacheTTL:        cfg.CacheTTL,
		Compress:        cfg.Compress,
		CompressQuality: cfg.CompressQuality,
		Logger:          logger,
	})

	req, err := buildRequest(ctx, opts, loader)
	if err != nil {
		return err
	}

	if opts.enhance && req.Prompt != "" {
		req.Prompt = gen.EnhancePrompt(ctx, req.Prompt)
		logger.Info("プロンプトを改善しました", "prompt", req.Prompt)
	}
	logger.Debug("合成済みプロンプト", "prompt", gen.ComposePrompt(req))

	res, err := gen.GenerateImage(ctx, req)
	if err != nil {
		var ge *generator.GenerationError
		if errors.As(err, &ge) {
			return fmt.Errorf("[%s] %s", ge.Kind, ge.Message)
		}
		return err
	}

	out := opts.out
	if out == "" {
		out = "imagestudio" + extensionFor(res.MimeType)
	}
	if err := os.WriteFile(out, res.Data, 0o644); err != nil {
		return fmt.Errorf("画像の保存に失敗しました: %w", err)
	}

	fmt.Fprintf(stdout, "%s (model=%s, attempts=%d, fallback=%t, seed=%d)\n",
		out, res.Model, res.Attempts, res.FellBack, res.UsedSeed)
	return nil
}

func parseFlags(args []string) (*cliOptions, error) {
	opts := &cliOptions{}
	fs := flag.NewFlagSet("imagestudio", flag.ContinueOnError)

	fs.StringVar(&opts.prompt, "prompt", "", "Prompt text")
	fs.StringVar(&opts.negative, "negative", "", "Negative prompt (things to exclude)")
	fs.StringVar(&opts.aspect, "aspect", string(domain.AspectSquare), "Aspect ratio: 1:1, 4:3, 3:4, 16:9, 9:16")
	fs.StringVar(&opts.resolution, "resolution", string(domain.Resolution1K), "Resolution: 1K, 2K, 4K")
	fs.StringVar(&opts.preset, "style", prompt.NoneID, "Style preset id (see -list)")

	fs.StringVar(&opts.environment, "environment", prompt.NoneID, "Environment filter id")
	fs.StringVar(&opts.character, "character", prompt.NoneID, "Character filter id")
	fs.StringVar(&opts.camera, "camera", prompt.NoneID, "Camera filter id")
	fs.StringVar(&opts.mood, "mood", prompt.NoneID, "Mood filter id")
	fs.StringVar(&opts.technical, "technical", prompt.NoneID, "Technical style filter id")

	fs.Func("seed", "Seed for reproducible output", func(v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		opts.seed = &n
		return nil
	})
	fs.Func("creativity", "Creativity (temperature) between 0 and 1", func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		opts.creativity = &f
		return nil
	})
	fs.BoolVar(&opts.raw, "raw", false, "Raw mode: skip filters and presets")
	fs.BoolVar(&opts.enhance, "enhance", false, "Rewrite the prompt with a text model before generating")

	fs.StringVar(&opts.reference, "ref", "", "Reference image (path, gs:// URI, http(s) URL or data URI)")
	fs.StringVar(&opts.content, "content", "", "Content image for style transfer")
	fs.StringVar(&opts.styleImage, "style-image", "", "Style image for style transfer")

	fs.StringVar(&opts.out, "out", "", "Output file path")
	fs.StringVar(&opts.envFile, "env-file", "", "Path to a .env file")
	fs.BoolVar(&opts.list, "list", false, "List filter options and style presets")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// buildRequest はフラグから GenerationRequest を組み立て、画像ソースを読み込みます。
func buildRequest(ctx context.Context, opts *cliOptions, loader *adapters.AssetLoader) (domain.GenerationRequest, error) {
	suffix, ok := prompt.StylePresetSuffix(opts.preset)
	if !ok {
		return domain.GenerationRequest{}, fmt.Errorf("不明なスタイルプリセットです: %s", opts.preset)
	}

	req := domain.GenerationRequest{
		Prompt:            opts.prompt,
		NegativePrompt:    opts.negative,
		AspectRatio:       domain.AspectRatio(opts.aspect),
		Resolution:        domain.Resolution(opts.resolution),
		StylePresetSuffix: suffix,
		Filters: domain.FilterSelection{
			Environment:    opts.environment,
			Character:      opts.character,
			Camera:         opts.camera,
			Mood:           opts.mood,
			TechnicalStyle: opts.technical,
		},
		Seed:       opts.seed,
		Creativity: opts.creativity,
		RawMode:    opts.raw,
	}

	images := []struct {
		source string
		dst    **domain.ImageBlob
	}{
		{opts.reference, &req.ReferenceImage},
		{opts.content, &req.ContentImage},
		{opts.styleImage, &req.StyleImage},
	}
	for _, img := range images {
		if img.source == "" {
			continue
		}
		blob, err := loader.Load(ctx, img.source)
		if err != nil {
			return domain.GenerationRequest{}, fmt.Errorf("画像の読み込みに失敗しました: %w", err)
		}
		*img.dst = blob
	}
	return req, nil
}

// imageSources はフラグで指定された画像ソースを返します。
func (o *cliOptions) imageSources() []string {
	return []string{o.reference, o.content, o.styleImage}
}

// needsGCS は gs:// の画像ソースが含まれているかを判定するのだ。
func needsGCS(opts *cliOptions) bool {
	for _, src := range opts.imageSources() {
		if remoteio.IsGCSURI(src) {
			return true
		}
	}
	return false
}

// openGCSReader は gs:// のソースがあるときだけ、ADC の認証情報で GCS 用の
// InputReader を作成します。不要なときは nil と何もしない close 関数を返すのだ。
func openGCSReader(ctx context.Context, opts *cliOptions) (remoteio.InputReader, func() error, error) {
	noop := func() error { return nil }
	if !needsGCS(opts) {
		return nil, noop, nil
	}

	factory, err := gcsfactory.New(ctx)
	if err != nil {
		return nil, noop, err
	}
	reader, err := factory.InputReader()
	if err != nil {
		_ = factory.Close()
		return nil, noop, fmt.Errorf("GCS リーダーの作成に失敗しました: %w", err)
	}
	return reader, factory.Close, nil
}

func credentials(cfg *config.Settings) generator.CredentialProvider {
	if cfg.APIKey != "" {
		return generator.StaticCredentials(cfg.APIKey)
	}
	return generator.EnvCredentials{}
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

func printCatalog(w io.Writer, catalog prompt.Catalog) {
	categories := []prompt.Category{
		prompt.CategoryEnvironment,
		prompt.CategoryCharacter,
		prompt.CategoryCamera,
		prompt.CategoryMood,
		prompt.CategoryTechnical,
	}
	for _, cat := range categories {
		fmt.Fprintf(w, "[%s]\n", cat)
		for _, o := range catalog.Options(cat) {
			fmt.Fprintf(w, "  %-16s %s\n", o.ID, o.Label)
		}
	}
	fmt.Fprintln(w, "[style]")
	for _, p := range prompt.StylePresets {
		fmt.Fprintf(w, "  %-16s %s\n", p.ID, p.Label)
	}
}
