package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/roelfdiedericks/voicegate/internal/audio"
	"github.com/roelfdiedericks/voicegate/internal/config"
	httpserver "github.com/roelfdiedericks/voicegate/internal/http"
	. "github.com/roelfdiedericks/voicegate/internal/logging"
	"github.com/roelfdiedericks/voicegate/internal/paths"
	"github.com/roelfdiedericks/voicegate/internal/stt"
)

// ServeCmd runs the HTTP gateway until SIGINT or SIGTERM.
type ServeCmd struct {
	Listen   string `help:"Override http.listen" placeholder:"HOST:PORT"`
	NoWatch  bool   `help:"Do not reload the config file on change"`
	Shutdown int    `help:"Seconds to wait for running requests on shutdown" default:"30"`
}

func (c *ServeCmd) Run(g *Globals) error {
	result, err := g.loadConfig()
	if err != nil {
		return err
	}
	cfg := result.Config
	if c.Listen != "" {
		cfg.HTTP.Listen = c.Listen
	}

	L_info("voicegate starting", "version", version)

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	server, err := httpserver.NewServer(cfg.HTTP, a.pipeline, a.providers(), a.metrics)
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}

	if result.Path != "" && !c.NoWatch {
		w, err := config.NewWatcher(result.Path, 0, func(next *config.Config) {
			g.applyLogging(next.Logging)
			L_info("config: log level applied; other changes take effect on restart")
		})
		if err != nil {
			L_warn("config: watcher unavailable", "error", err)
		} else {
			w.Start()
			defer w.Stop()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	L_info("voicegate ready", "addr", server.Addr(), "stt", a.providers().STT, "llm", a.providers().LLM, "tts", a.providers().TTS)
	<-ctx.Done()

	L_info("voicegate shutting down")
	return server.Stop(time.Duration(c.Shutdown) * time.Second)
}

// ModelsCmd groups whisper.cpp model management.
type ModelsCmd struct {
	List     ModelsListCmd     `cmd:"" default:"1" help:"List known models and whether they are downloaded"`
	Download ModelsDownloadCmd `cmd:"" help:"Download a model (default: the configured one)"`
}

type ModelsListCmd struct{}

func (c *ModelsListCmd) Run(g *Globals) error {
	result, err := g.loadConfig()
	if err != nil {
		return err
	}
	dir, err := paths.ExpandTilde(result.Config.STT.WhisperCpp.ModelsDir)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "MODEL\tLABEL\tSIZE\tSTATUS\n")
	for _, m := range stt.ListModels(dir) {
		status := "-"
		if m.Downloaded {
			status = "downloaded"
		}
		if m.Name == result.Config.STT.WhisperCpp.Model {
			status += " (configured)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Name, m.Label, m.Size, status)
	}
	fmt.Fprintf(tw, "\nmodels dir: %s\n", dir)
	return tw.Flush()
}

type ModelsDownloadCmd struct {
	Name string `arg:"" optional:"" help:"Model file name, e.g. ggml-base.en.bin"`
}

func (c *ModelsDownloadCmd) Run(g *Globals) error {
	result, err := g.loadConfig()
	if err != nil {
		return err
	}
	name := c.Name
	if name == "" {
		name = result.Config.STT.WhisperCpp.Model
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return stt.EnsureModel(ctx, result.Config.STT.WhisperCpp.ModelsDir, name)
}

// TranscribeCmd prints the transcript of an audio file.
type TranscribeCmd struct {
	File string `arg:"" type:"existingfile" help:"Audio file (.pcm/.raw is taken as 16 kHz mono s16le; others are decoded)"`
}

func (c *TranscribeCmd) Run(g *Globals) error {
	result, err := g.loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	pcm, err := readPCM(ctx, c.File)
	if err != nil {
		return err
	}

	t, err := buildTranscriber(result.Config)
	if err != nil {
		return err
	}
	defer t.Provider().Close()

	text, err := t.Transcribe(ctx, uuid.NewString(), pcm)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

// SayCmd synthesizes text the way the gateway does and writes the PCM.
type SayCmd struct {
	Text   []string `arg:"" help:"Text to speak"`
	Output string   `short:"o" default:"reply.pcm" type:"path" help:"Output file; a .wav name gets a WAV header"`
}

func (c *SayCmd) Run(g *Globals) error {
	result, err := g.loadConfig()
	if err != nil {
		return err
	}

	speaker, err := buildSpeaker(result.Config)
	if err != nil {
		return err
	}

	pcm, err := speaker.Speak(context.Background(), uuid.NewString(), strings.Join(c.Text, " "))
	if err != nil {
		return err
	}
	return writePCM(c.Output, pcm)
}

// AskCmd runs one recording through transcription, completion and
// synthesis, exactly as a POST /voice_input would.
type AskCmd struct {
	Input  string `arg:"" type:"existingfile" help:"Recording (.pcm/.raw or any decodable audio)"`
	Output string `short:"o" default:"reply.pcm" type:"path" help:"Output file; a .wav name gets a WAV header"`
}

func (c *AskCmd) Run(g *Globals) error {
	result, err := g.loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	pcm, err := readPCM(ctx, c.Input)
	if err != nil {
		return err
	}

	a, err := newApp(result.Config)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.pipeline.Run(ctx, uuid.NewString(), pcm)
	if res.Err != nil {
		return res.Err
	}

	fmt.Printf("you said: %s\n", res.Transcript)
	fmt.Printf("reply:    %s\n", res.Reply)
	return writePCM(c.Output, res.Audio)
}

// ConfCmd groups config file commands.
type ConfCmd struct {
	Init ConfInitCmd `cmd:"" help:"Write a config file with every default filled in"`
}

type ConfInitCmd struct {
	Path  string `arg:"" optional:"" type:"path" help:"Destination (.json, .toml or .yaml); default ~/.voicegate/voicegate.json"`
	Force bool   `help:"Overwrite an existing file (a backup is kept)"`
}

func (c *ConfInitCmd) Run(g *Globals) error {
	g.applyLogging(config.Defaults().Logging)

	path := c.Path
	if path == "" {
		p, err := paths.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if _, err := os.Stat(path); err == nil && !c.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := paths.EnsureParentDir(path); err != nil {
		return err
	}

	// secrets stay in the environment
	if err := config.Save(path, config.Defaults(), config.DefaultBackupCount); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

// readPCM loads path as canonical 16 kHz mono 16-bit PCM. Raw files are
// passed through untouched; everything else is decoded and normalized.
func readPCM(ctx context.Context, path string) ([]byte, error) {
	// #nosec G304 - operator-supplied path
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pcm", ".raw":
		return data, nil
	}

	clip, err := audio.Decode(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return audio.Int16ToPCM(clip.Normalize().Samples), nil
}

// writePCM writes raw PCM, or a WAV file when path ends in .wav.
func writePCM(path string, pcm []byte) error {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		if err := audio.WriteWAVFile(path, pcm); err != nil {
			return err
		}
	} else if err := paths.AtomicWrite(path, pcm, 0644); err != nil {
		return err
	}
	L_info("wrote audio", "path", path, "bytes", len(pcm), "duration_sec", float64(len(pcm))/float64(audio.SampleRate*audio.SampleWidth))
	return nil
}
