package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"concretestrength/config"
	"concretestrength/logging"
	"concretestrength/ml"
)

// app 命令共享的状态, 在 PersistentPreRunE 中初始化
type app struct {
	configPath string
	modelPath  string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "strength",
		Short: "Concrete compressive strength predictor",
		Long: `strength scores a concrete mixture with the pre-trained regression model
and prints the predicted compressive strength together with its aging curve.

Run "strength predict --help" for the mixture flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if a.modelPath != "" {
				cfg.Model.Path = a.modelPath
			}
			cfg.Log.Format = "console"
			cfg.Log.File = ""
			if a.verbose {
				cfg.Log.Level = "debug"
			} else {
				cfg.Log.Level = "warn"
			}
			a.cfg = cfg

			a.logger, err = logging.New(cfg.Log)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "config.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVarP(&a.modelPath, "model", "m", "", "Model artifact path (overrides model.path)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(newPredictCmd(a))
	rootCmd.AddCommand(newModelCmd(a))
	return rootCmd
}

// provider 按配置创建只加载一次的模型提供者
func (a *app) provider() *ml.Provider {
	return ml.NewProvider(a.cfg.Model.Type, a.cfg.Model.Path, ml.WithLoadHook(func(info ml.ArtifactInfo, err error) {
		if err != nil {
			a.logger.Error("model load failed", zap.String("path", a.cfg.Model.Path), zap.Error(err))
			return
		}
		a.logger.Debug("model loaded",
			zap.String("type", info.Type),
			zap.String("fingerprint", info.Fingerprint))
	}))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
