package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
	"github.com/jessevdk/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/sms-spam/app/storage"
	"github.com/umputun/sms-spam/app/storage/engine"
	"github.com/umputun/sms-spam/app/webapi"
)

type options struct {
	File       string `short:"f" long:"file" env:"FILE" default:"data/SMSSpamCollection" description:"labeled messages, one tab-separated record per line"`
	StopWords  string `long:"stop-words" env:"STOP_WORDS" description:"custom stop words file, built-in english list if not set"`
	VocabOut   string `long:"vocab-out" env:"VOCAB_OUT" default:"data/vocabulary.json" description:"vocabulary json output, disabled if empty"`
	MatrixOut  string `long:"matrix-out" env:"MATRIX_OUT" description:"feature matrix csv output, disabled if not set"`
	CleanEmoji bool   `long:"clean-emoji" env:"CLEAN_EMOJI" description:"remove emoji from messages before processing"`

	LegacyEncode bool `long:"legacy-encode" env:"LEGACY_ENCODE" description:"encode without lowercasing, compatible with early deployments"`
	Watch        bool `long:"watch" env:"WATCH" description:"watch input files and rebuild on change"`

	DB struct {
		Connection string `long:"conn" env:"CONN" default:"data/sms-spam.db" description:"sqlite file or postgres connection string"`
		Group      string `long:"group" env:"GROUP" default:"" description:"group id, allows shared database"`
	} `group:"db" namespace:"db" env-namespace:"DB"`

	Server struct {
		Enabled    bool   `long:"enabled" env:"ENABLED" description:"enable web API server"`
		ListenAddr string `long:"listen" env:"LISTEN" default:":8080" description:"listen address"`
		AuthPasswd string `long:"auth" env:"AUTH" description:"basic auth password for user sms-spam"`
	} `group:"server" namespace:"server" env-namespace:"SERVER"`

	Logger struct {
		Enabled    bool   `long:"enabled" env:"ENABLED" description:"enable rotated audit log of processed records"`
		FileName   string `long:"file" env:"FILE" default:"sms-spam.log" description:"location of audit log"`
		MaxSize    string `long:"max-size" env:"MAX_SIZE" default:"100M" description:"maximum size before it gets rotated"`
		MaxBackups int    `long:"max-backups" env:"MAX_BACKUPS" default:"10" description:"maximum number of old log files to retain"`
	} `group:"logger" namespace:"logger" env-namespace:"LOGGER"`

	Dbg bool `long:"dbg" env:"DEBUG" description:"debug mode"`
}

var revision = "local"

func main() {
	fmt.Printf("sms-spam %s\n", revision)
	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	p.SubcommandsOptional = true
	if _, err := p.Parse(); err != nil {
		if err.(*flags.Error).Type != flags.ErrHelp {
			log.Printf("[ERROR] cli error: %v", err)
		}
		os.Exit(2)
	}

	setupLog(opts.Dbg, opts.Server.AuthPasswd)
	log.Printf("[DEBUG] options: %+v", opts)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		// catch signal and invoke graceful termination
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Printf("[WARN] interrupt signal")
		cancel()
	}()

	if err := execute(ctx, opts); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, opts options) error {
	db, err := makeDB(ctx, opts)
	if err != nil {
		return fmt.Errorf("can't make db, %w", err)
	}
	defer db.Close()

	records, err := storage.NewRecords(ctx, db)
	if err != nil {
		return fmt.Errorf("can't make records store, %w", err)
	}
	vocabStore, err := storage.NewVocab(ctx, db)
	if err != nil {
		return fmt.Errorf("can't make vocabulary store, %w", err)
	}

	auditWr, err := makeAuditLogWriter(opts)
	if err != nil {
		return fmt.Errorf("can't make audit log writer, %w", err)
	}
	defer auditWr.Close()

	proc := &processor{
		params: procParams{
			file:       opts.File,
			stopWords:  opts.StopWords,
			vocabOut:   opts.VocabOut,
			matrixOut:  opts.MatrixOut,
			cleanEmoji: opts.CleanEmoji,
			legacy:     opts.LegacyEncode,
		},
		records:    records,
		vocabStore: vocabStore,
		auditWr:    auditWr,
	}

	if err := proc.rebuild(ctx); err != nil {
		return fmt.Errorf("pipeline failed, %w", err)
	}

	if opts.Watch {
		go watchFiles(ctx, proc)
	}

	if opts.Server.Enabled {
		srv := webapi.NewServer(webapi.Config{
			Version:    revision,
			ListenAddr: opts.Server.ListenAddr,
			Encoder:    proc,
			AuthPasswd: opts.Server.AuthPasswd,
			Dbg:        opts.Dbg,
		})
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("webapi server failed, %w", err)
		}
		return nil
	}

	if opts.Watch { // watch-only mode, block until terminated
		<-ctx.Done()
	}
	return nil
}

// makeDB connects to sqlite or postgres, retrying a few times to survive
// slow database startup
func makeDB(ctx context.Context, opts options) (*engine.SQL, error) {
	var db *engine.SQL
	connect := func() (err error) {
		if strings.HasPrefix(opts.DB.Connection, "postgres://") {
			db, err = engine.NewPostgres(ctx, opts.DB.Connection, opts.DB.Group)
			return err
		}
		db, err = engine.NewSqlite(opts.DB.Connection, opts.DB.Group)
		return err
	}
	if err := repeater.NewFixed(5, time.Second).Do(ctx, connect); err != nil {
		return nil, fmt.Errorf("can't connect to %s: %w", opts.DB.Connection, err)
	}
	log.Printf("[DEBUG] database connected: %s, type: %s", opts.DB.Connection, db.Type())
	return db, nil
}

type nopWriteCloser struct{ io.Writer }

func (n nopWriteCloser) Close() error { return nil }

// makeAuditLogWriter creates a log writer to keep a record of every processed
// message, it parses options and makes lumberjack logger with rotation
func makeAuditLogWriter(opts options) (accessLog io.WriteCloser, err error) {
	if !opts.Logger.Enabled {
		return nopWriteCloser{io.Discard}, nil
	}

	sizeParse := func(inp string) (uint64, error) {
		if inp == "" {
			return 0, errors.New("empty value")
		}
		for i, sfx := range []string{"k", "m", "g", "t"} {
			if strings.HasSuffix(inp, strings.ToUpper(sfx)) || strings.HasSuffix(inp, strings.ToLower(sfx)) {
				val, err := strconv.Atoi(inp[:len(inp)-1])
				if err != nil {
					return 0, fmt.Errorf("can't parse %s: %w", inp, err)
				}
				return uint64(float64(val) * math.Pow(float64(1024), float64(i+1))), nil
			}
		}
		return strconv.ParseUint(inp, 10, 64)
	}

	maxSize, perr := sizeParse(opts.Logger.MaxSize)
	if perr != nil {
		return nil, fmt.Errorf("can't parse logger MaxSize: %w", perr)
	}

	maxSize /= 1048576

	log.Printf("[INFO] audit logger enabled for %s, max size %dM", opts.Logger.FileName, maxSize)
	return &lumberjack.Logger{
		Filename:   opts.Logger.FileName,
		MaxSize:    int(maxSize), // in MB
		MaxBackups: opts.Logger.MaxBackups,
		Compress:   true,
		LocalTime:  true,
	}, nil
}

func setupLog(dbg bool, secrets ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	secrets = func(ss []string) (res []string) { // filter out empty secrets
		for _, s := range ss {
			if s != "" {
				res = append(res, s)
			}
		}
		return res
	}(secrets)
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
