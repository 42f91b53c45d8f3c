package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/Topasm/MP3toSpotify/internal/library"
	"github.com/Topasm/MP3toSpotify/internal/metadata"
	"github.com/Topasm/MP3toSpotify/internal/repositories"
	"github.com/Topasm/MP3toSpotify/internal/services"
	"github.com/Topasm/MP3toSpotify/internal/shared"
	"github.com/Topasm/MP3toSpotify/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	extractor  services.Extractor
	repo       *repositories.RunRepository
	engine     *tasks.Engine
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog
	Extractor  services.Extractor
	Repository *repositories.RunRepository
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	engine := buildEngine(opts.Config, opts.Catalog, opts.Extractor, opts.Logger)

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		extractor:  opts.Extractor,
		repo:       opts.Repository,
		engine:     engine,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// buildEngine assembles a pipeline engine from the config. The review command
// rebuilds the engine with a file logger, so construction stays separate from
// NewRunner.
func buildEngine(config *shared.Config, catalog services.Catalog, extractor services.Extractor, logger *log.Logger) *tasks.Engine {
	backups := config.Backup.Dir
	if backups == "" {
		if dir, err := config.Backup.Resolve(); err == nil {
			backups = dir
		}
	}

	repairer := metadata.NewRepairer(config.Matching.FallbackEncoding, config.Matching.MinConfidence)

	return tasks.NewEngine(tasks.EngineOpts{
		Catalog:   catalog,
		Library:   library.NewScanner(config.Library, repairer, logger),
		Extractor: extractor,
		Repairer:  repairer,
		BackupDir: backups,
		Matching:  config.Matching,
		Logger:    logger,
	})
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		scanCommand, retryCommand, importCommand, duplicatesCommand, playlistCommand, authCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// saveTokens stores token on the config and persists the config file. An
// empty config path keeps the update in memory only.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("config is nil")
	}
	if token == nil {
		return fmt.Errorf("failed to update spotify configuration: token cannot be nil")
	}

	r.config.Credentials.Spotify.Update(token)

	if r.configPath == "" {
		return nil
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}
