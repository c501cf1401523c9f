package main

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/senti/internal/repositories"
	"github.com/desertthunder/senti/internal/services"
	"github.com/desertthunder/senti/internal/session"
	"github.com/desertthunder/senti/internal/shared"
	"github.com/desertthunder/senti/internal/tasks"
	"github.com/desertthunder/senti/internal/ui"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Reader
	inputFile  *os.File

	api     *services.APIService
	svc     *services.SentimentService
	session *session.Manager
	engine  *tasks.Engine
	term    *ui.Terminal
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	DB         *sql.DB // Local database; nil keeps the session in memory and disables the anonymous history
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader // Source for interactive prompts (default: os.Stdin)
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
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout}
	}

	r := &Runner{
		config:     opts.Config,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewReader(opts.Input),
	}
	if f, ok := opts.Input.(*os.File); ok {
		r.inputFile = f
	}
	r.wire()
	return r
}

// wire builds the service graph from the current config, database and logger.
func (r *Runner) wire() {
	r.term = ui.NewTerminal(r.output, r.logger)
	r.api = services.NewAPIService(r.config.API.BaseURL, r.httpClient)

	var store session.Store = session.NewMemoryStore()
	var history tasks.HistoryStore
	var scopes tasks.ScopeStore
	if r.db != nil {
		store = session.NewSQLiteStore(r.db)
		history = repositories.NewAnalysisRepository(r.db)
		scopes = repositories.NewMetadataRepository(r.db)
	}

	r.session = session.NewManager(r.api, store, r.term, r.logger)
	r.svc = services.NewSentimentService(r.api, r.session, r.logger)
	r.engine = tasks.NewEngine(r.svc, r.session, history, scopes, r.logger)
}

// SetLogger replaces the logger and rewires the services that hold it.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.wire()
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, classifyCommand, batchCommand, scrapeCommand,
		historyCommand, feedbackCommand, statsCommand, trainCommand, apiCommand,
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

// progressPrinter logs updates from a progress channel until it is closed.
func (r *Runner) progressPrinter(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			r.logger.Info(u.Message, "phase", u.Phase)
		}
	}()
	return done
}
