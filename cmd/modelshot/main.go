package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"google.golang.org/genai"

	"github.com/shouni/fashion-model-kit/pkg/domain"
	"github.com/shouni/fashion-model-kit/pkg/generator"
	"github.com/shouni/fashion-model-kit/pkg/imgutil"
	"github.com/shouni/fashion-model-kit/pkg/prompt"
	"github.com/shouni/fashion-model-kit/pkg/store"
)

// stateBudget はローカル状態ストアの容量上限です。
const stateBudget = 5 << 20

// fetchTimeout はリモート画像取得のタイムアウトです。
const fetchTimeout = 30 * time.Second

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("生成に失敗しました", "error", err)
		var perr *domain.PipelineError
		if errors.As(err, &perr) {
			fmt.Fprintln(os.Stderr, perr.UserMessage())
		}
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// .env は任意。無ければ環境変数だけで動きます。
	_ = godotenv.Load()

	var (
		clothingPath   = flag.String("clothing", "", "服飾画像のパスまたはURL（必須）")
		backgroundPath = flag.String("background", "", "カスタム背景画像のパスまたはURL")
		presetID       = flag.String("preset", "", "参照に使う保存済みモデルプリセットのID")
		presetName     = flag.String("name", "", "初回生成時に保存するプリセット名")
		outDir         = flag.String("out", "out", "生成画像の出力先ディレクトリ")
		variations     = flag.Int("n", 1, "生成するバリエーション数")
		promptOverride = flag.String("prompt", "", "属性から組み立てる代わりに使う生成指示")
		listPresets    = flag.Bool("list-presets", false, "保存済みプリセットを一覧して終了")

		age         = flag.Int("age", 18, "モデル年齢")
		gender      = flag.String("gender", domain.Random, "性別")
		ethnicity   = flag.String("ethnicity", domain.Random, "人種")
		pose        = flag.String("pose", "站立", "姿勢")
		expression  = flag.String("expression", "微笑", "表情")
		hairstyle   = flag.String("hairstyle", domain.Random, "発型")
		hairColor   = flag.String("hair-color", domain.Random, "発色")
		bodyType    = flag.String("body-type", domain.Random, "体型")
		features    = flag.String("features", "", "面部特徴（カンマ区切り）")
		height      = flag.Int("height", 170, "身長(cm)")
		shotType    = flag.String("shot", "全身", "撮影範囲")
		scene       = flag.String("scene", "影棚", "シーン名")
		aspectRatio = flag.String("aspect", "9:16", "宽高比")
	)
	flag.Parse()

	stateDir := os.Getenv("MODELSHOT_STATE_DIR")
	if stateDir == "" {
		stateDir = ".modelshot"
	}
	kv, err := store.NewFileStore(stateDir, stateBudget)
	if err != nil {
		return err
	}
	cache, err := store.NewCache(kv)
	if err != nil {
		return err
	}

	if *listPresets {
		presets, err := cache.ListPresets()
		if err != nil {
			return err
		}
		for _, p := range presets {
			fmt.Printf("%s\t%s\t%s\n", p.ID, p.Name, p.CreatedAt.Format("2006-01-02"))
		}
		return nil
	}

	if *clothingPath == "" {
		return fmt.Errorf("-clothing は必須です")
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY 環境変数が設定されていません")
	}

	attrs := domain.AttributeSet{
		Age:         *age,
		Gender:      *gender,
		Ethnicity:   *ethnicity,
		Pose:        *pose,
		Expression:  *expression,
		Hairstyle:   *hairstyle,
		HairColor:   *hairColor,
		BodyType:    *bodyType,
		Height:      *height,
		ShotType:    *shotType,
		Scene:       *scene,
		AspectRatio: *aspectRatio,
	}
	if *features != "" {
		for _, f := range strings.Split(*features, ",") {
			if f = strings.TrimSpace(f); f != "" {
				attrs.FacialFeatures = append(attrs.FacialFeatures, f)
			}
		}
	}

	normalizer, err := imgutil.NewNormalizer(httpkit.New(fetchTimeout), nil)
	if err != nil {
		return err
	}

	// 画像パーツは位置で役割が決まるため、参照モデル→背景→服飾の順に積みます。
	var images []domain.ImagePayload

	var preset domain.SavedModelPreset
	usePreset := false
	if *presetID != "" {
		preset, usePreset, err = cache.FindPreset(*presetID)
		if err != nil {
			return err
		}
		if !usePreset {
			return fmt.Errorf("プリセット %q が見つかりません", *presetID)
		}
		// サムネイルは保存時点で正規化済みなので、パースだけで再利用します。
		thumb, err := imgutil.ParseDataURI(preset.ThumbnailURI)
		if err != nil {
			return err
		}
		images = append(images, thumb)
		attrs = preset.Attributes.Clone()
	}

	hasBackground := *backgroundPath != ""
	if hasBackground {
		bg, err := normalizeSource(ctx, normalizer, *backgroundPath)
		if err != nil {
			return err
		}
		images = append(images, bg)
	}

	clothing, err := normalizeSource(ctx, normalizer, *clothingPath)
	if err != nil {
		return err
	}
	images = append(images, clothing)

	instruction := *promptOverride
	if instruction == "" {
		instruction = prompt.Build(attrs, prompt.Flags{
			HasCustomBackground: hasBackground,
			HasModelReference:   usePreset,
		})
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return fmt.Errorf("Geminiクライアントの初期化に失敗しました: %w", err)
	}
	generative, err := generator.NewGeminiClient(client)
	if err != nil {
		return err
	}
	orch, err := generator.New(generative, generator.Options{
		Model: os.Getenv("MODELSHOT_MODEL"),
	})
	if err != nil {
		return err
	}

	result, err := orch.Generate(ctx, domain.GenerationRequest{
		Instruction: instruction,
		Images:      images,
		Variations:  *variations,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	for i, img := range result.Images {
		raw, err := img.RawBytes()
		if err != nil {
			return err
		}
		path := filepath.Join(*outDir, fmt.Sprintf("model-%02d%s", i+1, extensionFor(img.MediaType)))
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return err
		}
		fmt.Println(path)
	}

	if err := cache.RecordGeneration(result.DataURIs()); err != nil {
		slog.Warn("直近履歴の保存に失敗しました", "error", err)
	}

	// プリセット未選択の初回成功時は、先頭の結果をサムネイルに新規保存します。
	if !usePreset {
		name := *presetName
		if name == "" {
			existing, _ := cache.ListPresets()
			name = fmt.Sprintf("模特 #%d", len(existing)+1)
		}
		created := store.NewPreset(name, attrs, result.Images[0].DataURI())
		if err := cache.UpsertPreset(created); err != nil {
			slog.Warn("プリセットの保存に失敗しました", "error", err)
		} else {
			fmt.Printf("saved preset: %s (%s)\n", created.Name, created.ID)
		}
	}

	return nil
}

// normalizeSource はローカルパスと http(s) URL の両方を受け付けます。
// gs:// はこの CLI では reader を注入していないため、早期に明確なエラーで弾きます。
func normalizeSource(ctx context.Context, n *imgutil.Normalizer, source string) (domain.ImagePayload, error) {
	if strings.HasPrefix(source, "gs://") {
		return domain.ImagePayload{}, fmt.Errorf("gs:// ソース %q はこのコマンドでは未対応です（ローカルパスか http(s) URL を指定してください）", source)
	}
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return n.FromURL(ctx, source)
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return domain.ImagePayload{}, domain.WrapPipelineError(domain.KindFetch, "画像ファイルを読み込めませんでした", err)
	}
	return n.FromBytes(data)
}

func extensionFor(mediaType string) string {
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	return ".jpg"
}
