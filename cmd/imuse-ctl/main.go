// ABOUTME: Command-line control client for an imuse server
// ABOUTME: Discovers or dials a server, sends one command and prints the reply
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/Resonate-Protocol/imuse-go/internal/client"
	"github.com/Resonate-Protocol/imuse-go/internal/discovery"
	"github.com/Resonate-Protocol/imuse-go/internal/protocol"
	"github.com/Resonate-Protocol/imuse-go/pkg/imuse"
)

var (
	serverAddr = flag.String("server", "", "Server address host:port (default: discover via mDNS)")
	timeout    = flag.Duration("timeout", 5*time.Second, "Request and discovery timeout")
	debug      = flag.Bool("debug", false, "Log connection details to stderr")
)

const usage = `usage: imuse-ctl [flags] <command> [args]

commands:
  status
  start <sound> [-group g] [-hook h] [-volume v] [-pan p] [-priority p]
  stop [-track id | -sound name | -all]
  fade -track id [-volume v] [-pan p] [-ms ms]
  fade -music [-ms ms]
  hook -track id -hook h
  pause | resume
  group-volume -group g -volume v
  save -out file
  restore -in file
  send <type> [json payload]
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *debug {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	addr := *serverAddr
	if addr == "" {
		server, err := discovery.Lookup(*timeout)
		if err != nil {
			fatalf("discovery failed: %v (use -server)", err)
		}
		addr = server.Addr()
	}

	c := client.NewClient(client.Config{ServerAddr: addr, Timeout: *timeout})
	if err := c.Connect(); err != nil {
		fatalf("%v", err)
	}
	defer c.Close()

	if err := run(c, flag.Arg(0), flag.Args()[1:]); err != nil {
		var se *client.ServerError
		if errors.As(err, &se) {
			fatalf("%s: %s", se.Code, se.Message)
		}
		fatalf("%v", err)
	}
}

func run(c *client.Client, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)

	switch cmd {
	case "status":
		status, err := c.Status()
		if err != nil {
			return err
		}
		return printJSON(status)

	case "start":
		group := fs.Int("group", imuse.GroupMusic, "Volume group (1 voice, 2 sfx, 3 music)")
		hook := fs.Int("hook", 0, "Initial hook ID")
		volume := fs.Int("volume", imuse.MaxLevel, "Volume 0-127")
		pan := fs.Int("pan", imuse.CenterPan, "Pan 0-127")
		priority := fs.Int("priority", 0, "Priority 0-127")
		if len(args) == 0 {
			return fmt.Errorf("start needs a sound name")
		}
		fs.Parse(args[1:])
		id, err := c.StartTrack(protocol.TrackStart{
			Sound: args[0], Group: *group, Hook: *hook,
			Volume: volume, Pan: pan, Priority: *priority,
		})
		if err != nil {
			return err
		}
		fmt.Printf("track %d\n", id)
		return nil

	case "stop":
		track := fs.Int("track", -1, "Track ID")
		name := fs.String("sound", "", "Stop every track playing this sound")
		all := fs.Bool("all", false, "Stop everything")
		fs.Parse(args)
		req := protocol.TrackStop{Sound: *name, All: *all}
		if *track >= 0 {
			req.TrackID = track
		}
		n, err := c.StopTrack(req)
		if err != nil {
			return err
		}
		fmt.Printf("stopped %d\n", n)
		return nil

	case "fade":
		track := fs.Int("track", 0, "Track ID")
		volume := fs.Int("volume", -1, "Target volume 0-127")
		pan := fs.Int("pan", -1, "Target pan 0-127")
		ms := fs.Int("ms", 1000, "Fade length in milliseconds")
		music := fs.Bool("music", false, "Fade out every music track")
		fs.Parse(args)
		req := protocol.TrackFade{TrackID: *track, FadeMs: *ms, Music: *music}
		if *volume >= 0 {
			req.Volume = volume
		}
		if *pan >= 0 {
			req.Pan = pan
		}
		return c.Call(protocol.TypeTrackFade, req, nil)

	case "hook":
		track := fs.Int("track", 0, "Track ID")
		hook := fs.Int("hook", 0, "Hook ID")
		fs.Parse(args)
		return c.Call(protocol.TypeTrackHook, protocol.TrackHook{TrackID: *track, Hook: *hook}, nil)

	case "pause", "resume":
		return c.Call(protocol.TypeEnginePause, protocol.EnginePause{Paused: cmd == "pause"}, nil)

	case "group-volume":
		group := fs.Int("group", imuse.GroupMusic, "Volume group (1 voice, 2 sfx, 3 music)")
		volume := fs.Int("volume", imuse.MaxLevel, "Volume 0-127")
		fs.Parse(args)
		var reply protocol.EngineGroupVolume
		if err := c.Call(protocol.TypeEngineGroupVolume, protocol.EngineGroupVolume{Group: *group, Volume: *volume}, &reply); err != nil {
			return err
		}
		fmt.Printf("group %d volume %d\n", reply.Group, reply.Volume)
		return nil

	case "save":
		out := fs.String("out", "imuse.sav", "Save file")
		fs.Parse(args)
		data, err := c.Save()
		if err != nil {
			return err
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			return fmt.Errorf("write save: %w", err)
		}
		fmt.Printf("saved %d bytes to %s\n", len(data), *out)
		return nil

	case "restore":
		in := fs.String("in", "imuse.sav", "Save file")
		fs.Parse(args)
		data, err := os.ReadFile(*in)
		if err != nil {
			return fmt.Errorf("read save: %w", err)
		}
		status, err := c.Restore(data)
		if err != nil {
			return err
		}
		return printJSON(status)

	case "send":
		if len(args) == 0 {
			return fmt.Errorf("send needs a message type")
		}
		var payload interface{}
		if len(args) > 1 {
			if err := json.Unmarshal([]byte(args[1]), &payload); err != nil {
				return fmt.Errorf("invalid payload: %w", err)
			}
		}
		var reply interface{}
		if err := c.Call(args[0], payload, &reply); err != nil {
			return err
		}
		return printJSON(reply)
	}

	return fmt.Errorf("unknown command %q", cmd)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "imuse-ctl: "+format+"\n", args...)
	os.Exit(1)
}
