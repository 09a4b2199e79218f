package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/brightsmile/engagebot-go/internal/client"
	"github.com/brightsmile/engagebot-go/internal/service"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "unknown"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	patientStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	urgentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

// options 全局参数
type options struct {
	useLLM  bool
	asJSON  bool
	model   string
	verbose bool
}

// NewRootCmd 构建命令树
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "engage-cli",
		Short: "Offline tools for the dental engagement engine",
		Long: `Inspect the engagement engine without running the server.

  engage-cli classify "I'm nervous about my visit"
  engage-cli score session.json
  engage-cli chat --llm`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}

	root.PersistentFlags().BoolVar(&opts.useLLM, "llm", false, "Use DashScope (DASHSCOPE_API_KEY) instead of keyword rules")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print machine readable JSON")
	root.PersistentFlags().StringVar(&opts.model, "model", "qwen-turbo", "DashScope model name")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(newClassifyCmd(opts), newScoreCmd(opts), newChatCmd(opts))
	return root
}

// Execute 入口
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (o *options) logger() *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// llm 启用 --llm 时返回 DashScope 客户端
func (o *options) llm(logger *zap.Logger) (*client.DashScopeClient, error) {
	if !o.useLLM {
		return nil, nil
	}
	key := os.Getenv("DASHSCOPE_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("--llm requires DASHSCOPE_API_KEY")
	}
	return client.NewDashScopeClient(key, o.model, os.Getenv("DASHSCOPE_BASE_URL"), 30*time.Second, logger), nil
}

// collaborators 返回分类器和生成器，未启用 LLM 时都为 nil
func (o *options) collaborators(logger *zap.Logger) (service.Classifier, service.Generator, error) {
	llm, err := o.llm(logger)
	if err != nil || llm == nil {
		return nil, nil, err
	}
	return service.NewLLMClassifier(llm, logger), llm, nil
}

func writeJSONLine(w io.Writer, data []byte) error {
	_, err := fmt.Fprintln(w, string(data))
	return err
}
