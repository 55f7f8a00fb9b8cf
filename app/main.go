package main

import (
	"context"
	"encoding/json"
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
	"github.com/go-pkgz/fileutils"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bbd03/check-swear/app/storage"
	"github.com/bbd03/check-swear/app/webapi"
	"github.com/bbd03/check-swear/lib/checkswear"
)

type options struct {
	Bins      int      `long:"bins" env:"BINS" default:"0" description:"number of segments to split each text into, 0 keeps the text whole"`
	StopWords []string `long:"stop-word" env:"STOP_WORDS" env-delim:"," description:"extra profane words merged into the lexicon"`
	NoRegPred bool     `long:"no-reg-pred" env:"NO_REG_PRED" description:"disable lexicon regex boosting"`
	Threshold float64  `long:"threshold" env:"THRESHOLD" default:"0.5" description:"probability threshold for the profane label"`

	Files struct {
		ProfaneSamplesFile string `long:"samples-profane" env:"SAMPLES_PROFANE" default:"data/profane-samples.txt" description:"profane samples"`
		CleanSamplesFile   string `long:"samples-clean" env:"SAMPLES_CLEAN" default:"data/clean-samples.txt" description:"clean samples"`
		Watch              bool   `long:"watch" env:"WATCH" description:"watch sample files and retrain on change"`
	} `group:"files" namespace:"files" env-namespace:"FILES"`

	Server struct {
		Enabled    bool   `long:"enabled" env:"ENABLED" description:"run the web API server instead of one-shot scoring"`
		ListenAddr string `long:"listen" env:"LISTEN" default:":8080" description:"listen address"`
		AuthPasswd string `long:"auth" env:"AUTH" description:"basic auth password for user \"check-swear\", disabled if empty"`
		DBFile     string `long:"db" env:"DB" description:"sqlite file to keep detections, disabled if empty"`
	} `group:"server" namespace:"server" env-namespace:"SERVER"`

	Logger struct {
		Enabled    bool   `long:"enabled" env:"ENABLED" description:"enable rotated detections log"`
		FileName   string `long:"file" env:"FILE" default:"check-swear.log" description:"location of detections log"`
		MaxSize    string `long:"max-size" env:"MAX_SIZE" default:"100M" description:"maximum size before it gets rotated"`
		MaxBackups int    `long:"max-backups" env:"MAX_BACKUPS" default:"10" description:"maximum number of old log files to retain"`
	} `group:"logger" namespace:"logger" env-namespace:"LOGGER"`

	Dbg bool `long:"dbg" env:"DEBUG" description:"debug mode"`
}

var revision = "local"

func main() {
	fmt.Printf("check-swear %s\n", revision)
	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	p.SubcommandsOptional = true
	texts, err := p.Parse()
	if err != nil {
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

	if err := execute(ctx, opts, texts); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, opts options, texts []string) error {
	checker, err := makeChecker(opts)
	if err != nil {
		return fmt.Errorf("can't make checker, %w", err)
	}

	if opts.Files.Watch {
		go watchSamples(ctx, opts.Files.ProfaneSamplesFile, opts.Files.CleanSamplesFile,
			func(profane, clean []string) error {
				if len(profane) == 0 || len(clean) == 0 {
					return errors.New("refusing to retrain on an empty corpus")
				}
				vectorizer, classifier := checkswear.TrainModel(profane, clean, checkswear.DefaultTokenizerConfig())
				checker.SetModel(vectorizer, classifier)
				log.Printf("[INFO] model retrained, profane: %d, clean: %d", len(profane), len(clean))
				return nil
			})
	}

	if opts.Server.Enabled {
		return runServer(ctx, opts, checker)
	}
	return scoreTexts(opts, checker, texts)
}

// makeChecker trains the model from sample files and builds the checker
func makeChecker(opts options) (*checkswear.Checker, error) {
	for _, f := range []string{opts.Files.ProfaneSamplesFile, opts.Files.CleanSamplesFile} {
		if !fileutils.IsFile(f) {
			return nil, fmt.Errorf("samples file %s not found", f)
		}
	}
	profane, err := readSamples(opts.Files.ProfaneSamplesFile)
	if err != nil {
		return nil, fmt.Errorf("can't read profane samples, %w", err)
	}
	clean, err := readSamples(opts.Files.CleanSamplesFile)
	if err != nil {
		return nil, fmt.Errorf("can't read clean samples, %w", err)
	}
	log.Printf("[INFO] model trained, profane samples: %d, clean samples: %d", len(profane), len(clean))

	vectorizer, classifier := checkswear.TrainModel(profane, clean, checkswear.DefaultTokenizerConfig())
	cfg := checkswear.Config{RegPred: !opts.NoRegPred, Bins: opts.Bins, StopWords: opts.StopWords}
	log.Printf("[DEBUG] checker config: %+v", cfg)
	return checkswear.NewChecker(cfg, vectorizer, classifier)
}

func runServer(ctx context.Context, opts options, checker *checkswear.Checker) error {
	var store webapi.DetectionStore
	if opts.Server.DBFile != "" {
		db, err := storage.NewSqliteDB(opts.Server.DBFile)
		if err != nil {
			return fmt.Errorf("can't open detections db, %w", err)
		}
		defer db.Close()
		detections, err := storage.NewDetections(db)
		if err != nil {
			return fmt.Errorf("can't make detections storage, %w", err)
		}
		store = detections
		log.Printf("[INFO] detections storage enabled, file: %s", opts.Server.DBFile)
	}

	srv := webapi.NewServer(webapi.Config{
		Version:    revision,
		ListenAddr: opts.Server.ListenAddr,
		Checker:    checker,
		Store:      store,
		Threshold:  opts.Threshold,
		AuthPasswd: opts.Server.AuthPasswd,
		Dbg:        opts.Dbg,
	})
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("webapi server failed, %w", err)
	}
	return nil
}

// scoreTexts runs one-shot scoring of command line texts, or stdin if none
// given, and prints per-segment probabilities and labels
func scoreTexts(opts options, checker *checkswear.Checker, texts []string) error {
	if len(texts) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("can't read stdin, %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return errors.New("nothing to score, pass texts as arguments or on stdin")
		}
		texts = []string{string(data)}
	}

	detectionsWr, err := makeDetectionsLogWriter(opts)
	if err != nil {
		return fmt.Errorf("can't make detections log writer, %w", err)
	}
	defer detectionsWr.Close()

	for _, text := range texts {
		probs, err := checker.PredictProba(checkswear.Text(text))
		if err != nil {
			return fmt.Errorf("can't score text, %w", err)
		}
		segments := checker.Segments()
		for i, p := range probs {
			label := "clean"
			if p >= opts.Threshold {
				label = "profane"
				logDetection(detectionsWr, segments[i], p)
			}
			fmt.Printf("%.4f\t%s\t%s\n", p, label, segments[i])
		}
		for _, n := range checker.Notices() {
			fmt.Printf("notice: %s\n", n)
		}
	}
	return nil
}

// logDetection writes one json line per detected segment
func logDetection(wr io.Writer, text string, probability float64) {
	m := struct {
		TimeStamp   string  `json:"ts"`
		Text        string  `json:"text"`
		Probability float64 `json:"probability"`
	}{
		TimeStamp:   time.Now().In(time.Local).Format(time.RFC3339),
		Text:        strings.TrimSpace(strings.ReplaceAll(text, "\n", " ")),
		Probability: probability,
	}
	line, err := json.Marshal(&m)
	if err != nil {
		log.Printf("[WARN] can't marshal json, %v", err)
		return
	}
	if _, err := wr.Write(append(line, '\n')); err != nil {
		log.Printf("[WARN] can't write to log, %v", err)
	}
}

// makeDetectionsLogWriter parses options and makes lumberjack logger with rotation
func makeDetectionsLogWriter(opts options) (io.WriteCloser, error) {
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

	log.Printf("[INFO] detections log enabled for %s, max size %dM", opts.Logger.FileName, maxSize)
	return &lumberjack.Logger{
		Filename:   opts.Logger.FileName,
		MaxSize:    int(maxSize), // in MB
		MaxBackups: opts.Logger.MaxBackups,
		Compress:   true,
		LocalTime:  true,
	}, nil
}

type nopWriteCloser struct{ io.Writer }

func (n nopWriteCloser) Close() error { return nil }

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

	var nonEmpty []string
	for _, s := range secrets {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) > 0 {
		logOpts = append(logOpts, lgr.Secret(nonEmpty...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
