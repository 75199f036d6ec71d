package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/iamwavecut/tool"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iamwavecut/tubetool/internal/config"
	"github.com/iamwavecut/tubetool/internal/observability"
	"github.com/iamwavecut/tubetool/internal/pipeline"
	"github.com/iamwavecut/tubetool/internal/store"
	"github.com/iamwavecut/tubetool/internal/youtube"
)

var (
	headerColor  = color.New(color.FgCyan)
	stepColor    = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warnColor    = color.New(color.FgMagenta)
)

var (
	getNoTranscript bool
	getNo720        bool
	getNo1080       bool
	getNoEnhance    bool
	getNoDub        bool
)

var getCmd = &cobra.Command{
	Use:   "get [url]",
	Short: "Process a YouTube video from the terminal",
	Long: `Runs the full pipeline for one video and prints a summary.
Without a URL argument it prompts for one and offers to process
more videos afterwards.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runGet(args)
	},
}

func init() {
	getCmd.Flags().BoolVar(&getNoTranscript, "no-transcript", false, "skip the transcript step and its translation")
	getCmd.Flags().BoolVar(&getNo720, "no-720", false, "skip the 720p download")
	getCmd.Flags().BoolVar(&getNo1080, "no-1080", false, "skip the 1080p download")
	getCmd.Flags().BoolVar(&getNoEnhance, "no-enhance", false, "skip audio enhancement")
	getCmd.Flags().BoolVar(&getNoDub, "no-dub", false, "skip Portuguese dubbing")
	rootCmd.AddCommand(getCmd)
}

func getOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	if getNoTranscript {
		opts.Transcript = false
		opts.TranslatePT = false
	}
	if getNo720 {
		opts.Download720 = false
	}
	if getNo1080 {
		opts.Download1080 = false
	}
	if getNoEnhance {
		opts.EnhanceAudio = false
	}
	if getNoDub {
		opts.DubPortuguese = false
	}
	return opts
}

func runGet(args []string) {
	cfg := config.Get()
	ctx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	if err := observability.Init(ctx); err != nil {
		log.WithError(err).Warn("cant init observability")
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("cant open store, history disabled")
		st = nil
	}
	defer func() {
		if st != nil {
			_ = st.Close()
		}
	}()
	tk := newToolkit(ctx, cfg, st)

	headerColor.Println(strings.Repeat("=", 50))
	headerColor.Println("   YouTube Tool - Transcricao & Download")
	headerColor.Println("   Sem necessidade de API")
	headerColor.Println(strings.Repeat("=", 50))

	in := bufio.NewReader(os.Stdin)
	url := ""
	if len(args) > 0 {
		url = strings.TrimSpace(args[0])
	} else {
		fmt.Println("\nCole a URL do vídeo do YouTube abaixo:")
		fmt.Print("> URL: ")
		url = readLine(in)
	}
	if url == "" {
		errorColor.Println("[X] Nenhuma URL fornecida. Saindo.")
		os.Exit(1)
	}

	opts := getOptions()
	processVideo(ctx, tk, cfg, url, opts)

	for {
		fmt.Println("\n" + strings.Repeat("-", 40))
		fmt.Print("[?] Deseja processar outro vídeo? (s/n): ")
		answer := strings.ToLower(readLine(in))
		if !tool.In(answer, "s", "sim", "y", "yes") {
			fmt.Printf("\n Até mais! Os arquivos estão em: %s\n", cfg.DownloadDir)
			return
		}
		fmt.Print("> URL: ")
		url = readLine(in)
		if url == "" {
			errorColor.Println("[X] URL vazia.")
			continue
		}
		processVideo(ctx, tk, cfg, url, opts)
	}
}

func processVideo(ctx context.Context, tk *toolkit, cfg config.Config, url string, opts pipeline.Options) {
	headerColor.Println("\n" + strings.Repeat("=", 60))
	headerColor.Println(" YouTube Tool — Transcrição, Download, Áudio & Dublagem")
	headerColor.Println(strings.Repeat("=", 60))

	videoID, err := youtube.ExtractID(url)
	if err != nil {
		errorColor.Println("[X] Não foi possível extrair o ID do vídeo desta URL.")
		return
	}
	fmt.Printf("\n URL: %s\n", url)
	fmt.Printf(" Video ID: %s\n", videoID)
	fmt.Printf(" Pasta de downloads: %s\n", cfg.DownloadDir)

	id := tk.tasks.Create(ctx, url, videoID, store.OriginCLI)
	stop := observability.StartTaskTimer("cli")
	defer stop()

	res, err := tk.pipe.Run(ctx, url, opts, func(u pipeline.Update) {
		if u.Note != "" {
			observability.RecordStepError()
			tk.tasks.AddError(id, u.Note)
			warnColor.Printf("   %s\n", u.Note)
			return
		}
		tk.tasks.SetProgress(ctx, id, u.Stage, u.Percent)
		if u.Percent < 100 {
			stepColor.Printf("\n%s\n", u.Stage)
		}
	})
	tk.tasks.Finish(ctx, id, res, err)
	if err != nil {
		observability.RecordTask("cli", store.StatusError)
		errorColor.Printf("[X] Erro durante processamento: %v\n", err)
		return
	}
	observability.RecordTask("cli", store.StatusDone)

	if res.Title != "" {
		fmt.Printf("\n Título: %s\n", res.Title)
	}
	printSummary(res, opts)
}

func printSummary(res pipeline.Result, opts pipeline.Options) {
	headerColor.Println("\n" + strings.Repeat("=", 60))
	headerColor.Println(" RESUMO")
	headerColor.Println(strings.Repeat("=", 60))
	fmt.Printf(" Transcrição:      %s\n", summaryStatus(opts.Transcript, hasTranscript(res), "[OK] Salva", "[X] Não disponível"))
	fmt.Printf(" 720p:             %s\n", summaryStatus(opts.Download720, res.Video720 != "", "[OK] Baixado", "[X] Falhou"))
	fmt.Printf(" 1080p:            %s\n", summaryStatus(opts.Download1080, res.Video1080 != "", "[OK] Baixado", "[X] Falhou"))
	fmt.Printf(" Áudio melhorado:  %s\n", summaryStatus(opts.EnhanceAudio, res.Enhanced != "", "[OK] Pronto", "[X] Não processado"))
	fmt.Printf(" Dublagem PT:      %s\n", summaryStatus(opts.DubPortuguese, res.Dubbed != "", "[OK] Pronta", "[X] Não processada"))
	fmt.Printf(" Pasta:            %s\n", res.Folder)
	headerColor.Println(strings.Repeat("=", 60))
}

func summaryStatus(enabled, ok bool, okText, failText string) string {
	if !enabled {
		return warnColor.Sprint("[--] Pulado")
	}
	if ok {
		return successColor.Sprint(okText)
	}
	return errorColor.Sprint(failText)
}

func hasTranscript(res pipeline.Result) bool {
	for _, f := range res.Files {
		if f.Kind == pipeline.KindTranscript {
			return true
		}
	}
	return false
}

// readLine reads one trimmed line. EOF reads as an empty line, which
// callers treat as "no".
func readLine(in *bufio.Reader) string {
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}
