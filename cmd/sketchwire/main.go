// Copyright © 2025 Sketchwire contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/sketchwire/main.go
// Summary: Implements main capabilities for the sketchwire viewer.
// Usage: Executed by operators to display a producer's drawing stream.
// Notes: Focuses on wiring flags and lifecycle around the canvas core.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime/pprof"

	"github.com/creack/pty"
	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"github.com/framegrace/sketchwire/canvas"
	"github.com/framegrace/sketchwire/internal/ingestlog"
	"github.com/framegrace/sketchwire/protocol"
	"github.com/framegrace/sketchwire/render"
)

func main() {
	tcell.SetEncodingFallback(tcell.EncodingFallbackASCII)

	producerCmd := flag.String("cmd", "", "Producer command to spawn under a pty (default: read stdin)")
	logPath := flag.String("log", "sketchwire.log", "Log file path")
	journalPath := flag.String("journal", "", "Optional path to a SQLite ingest journal")
	fps := flag.Int("fps", 30, "Render loop frame rate")
	verboseLogs := flag.Bool("verbose-logs", false, "Enable verbose ingestion logging")
	cpuProfile := flag.String("pprof-cpu", "", "Write CPU profile to file")
	memProfile := flag.String("pprof-mem", "", "Write heap profile to file on exit")
	flag.Parse()

	protocol.SetVerboseLogging(*verboseLogs)
	ingestlog.SetVerboseLogging(*verboseLogs)

	// The terminal belongs to tcell; everything else goes to the log file.
	logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	log.SetOutput(logFile)
	log.Println("sketchwire starting")

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "sketchwire: stdout is not a terminal")
		os.Exit(1)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create CPU profile: %v\n", err)
			os.Exit(1)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	src, cleanup, err := openProducer(*producerCmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to attach producer: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	state := canvas.NewSharedState(canvas.DefaultCommandCap, canvas.DefaultTextPoolCap)

	var observer protocol.BatchObserver
	if *journalPath != "" {
		journal, err := ingestlog.Open(*journalPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open ingest journal: %v\n", err)
			os.Exit(1)
		}
		defer journal.Close()
		observer = journal
	}

	reader := protocol.NewReader(src, state, observer)
	go func() {
		if err := reader.Run(); err != nil {
			log.Printf("reader stopped: %v", err)
		} else {
			log.Println("reader finished: end of input")
		}
	}()

	screen, err := newScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init screen: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()
	screen.HideCursor()

	loop := render.NewLoop(screen, state, reader, *fps)
	if err := loop.Run(); err != nil {
		screen.Fini()
		log.Fatalf("render loop exited with error: %v", err)
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err == nil {
			_ = pprof.WriteHeapProfile(f)
			_ = f.Close()
		}
	}
	log.Println("sketchwire stopped cleanly")
}

// openProducer returns the protocol byte stream. With -cmd the producer runs
// as a child under a pty, so interactive agents behave as if attached to a
// terminal; its \r\n line endings are handled by the reader. When the child
// exits, reads on the pty fail and the reader treats that as end-of-input.
// Without -cmd the stream is stdin.
func openProducer(command string) (src *os.File, cleanup func(), err error) {
	if command == "" {
		return os.Stdin, func() {}, nil
	}

	cmd := exec.Command("/bin/sh", "-c", command)
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, nil, err
	}
	cleanup = func() {
		_ = ptmx.Close()
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		_ = cmd.Wait()
	}
	return ptmx, cleanup, nil
}

// newScreen builds a tcell screen on the controlling terminal. When stdin
// carries the protocol stream, tcell must not read events from it, so the
// screen is opened on /dev/tty explicitly.
func newScreen() (tcell.Screen, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return tcell.NewScreen()
	}
	tty, err := tcell.NewDevTty()
	if err != nil {
		return nil, err
	}
	return tcell.NewTerminfoScreenFromTty(tty)
}
