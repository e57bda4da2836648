package main

import (
	"context"
	"fmt"
	"folio/internal/blog"
	"folio/internal/domain/config"
	"folio/internal/logging"
	"folio/internal/source"
	fssource "folio/internal/source/fs"
	"folio/internal/source/s3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

const defaultConfigFile = "./site.yaml"

type app struct {
	cfg    config.Config
	log    *log.Logger
	closer io.Closer
	repo   *blog.Repository
}

var (
	cfgFile string
	cli     app
)

var rootCmd = &cobra.Command{
	Use:           "folio",
	Short:         "Inspect and index blog content",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cli.init(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if cli.closer != nil {
			return cli.closer.Close()
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./site.yaml)")
	pf.String("mode", "", "visibility mode: production or development")
	pf.String("content", "", "content directory")

	rootCmd.AddCommand(listCmd(), showCmd(), tagsCmd(), popularCmd(), recentCmd(), indexCmd(), metaCmd())
}

func (a *app) init(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	flags := cmd.Root().PersistentFlags()
	for key, name := range map[string]string{"blog.mode": "mode", "content.dir": "content"} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}

	overlay := func(c *config.Config) {
		if s := v.GetString("blog.mode"); s != "" {
			c.Blog.Mode = config.Mode(s)
		}
		if s := v.GetString("content.dir"); s != "" {
			c.Content.Dir = s
		}
		if s := v.GetString("content.source"); s != "" {
			c.Content.Source = config.SourceKind(s)
		}
		if s := v.GetString("content.s3.access_key"); s != "" {
			c.Content.S3.AccessKey = s
		}
		if s := v.GetString("content.s3.secret_key"); s != "" {
			c.Content.S3.SecretKey = s
		}
	}

	var (
		cfg config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile, overlay)
	} else {
		cfg, err = config.LoadOrDefault(defaultConfigFile, overlay)
	}
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg

	a.log, a.closer = logging.New(cfg.Log)
	log.SetOutput(a.log.Writer())

	src, err := openSource(cfg.Content)
	if err != nil {
		return err
	}
	a.repo = blog.New(src, blog.Options{
		Production:  cfg.Blog.Production(),
		Logger:      a.log,
		LoadTimeout: cfg.Blog.LoadTimeout,
	})
	return nil
}

func openSource(cc config.ContentConfig) (source.Source, error) {
	switch cc.Source {
	case config.SourceS3:
		return s3.New(s3.Options{
			Endpoint:   cc.S3.Endpoint,
			Bucket:     cc.S3.Bucket,
			Prefix:     cc.S3.Prefix,
			AccessKey:  cc.S3.AccessKey,
			SecretKey:  cc.S3.SecretKey,
			UseSSL:     cc.S3.UseSSL,
			Extensions: cc.Extensions,
		})
	default:
		return fssource.New(cc.Dir, cc.Extensions...), nil
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err.Error())
		os.Exit(1)
	}
}
