// ABOUTME: Control command dispatch
// ABOUTME: Maps protocol commands onto engine operations and engine errors onto error codes
package server

import (
	"errors"
	"fmt"
	"log"

	"github.com/Resonate-Protocol/imuse-go/internal/protocol"
	"github.com/Resonate-Protocol/imuse-go/pkg/imuse"
)

// commandError carries a protocol error code for a failed command
type commandError struct {
	code string
	err  error
}

func (e *commandError) Error() string { return e.err.Error() }
func (e *commandError) Unwrap() error { return e.err }

func badRequest(format string, args ...interface{}) error {
	return &commandError{code: protocol.ErrorBadRequest, err: fmt.Errorf(format, args...)}
}

// errorCode picks the protocol error code for err
func errorCode(err error) string {
	var ce *commandError
	switch {
	case errors.As(err, &ce):
		return ce.code
	case errors.Is(err, imuse.ErrResourceNotFound):
		return protocol.ErrorNotFound
	case errors.Is(err, imuse.ErrCapacityExhausted):
		return protocol.ErrorCapacity
	case errors.Is(err, imuse.ErrNoSuchTrack):
		return protocol.ErrorNoSuchTrack
	case errors.Is(err, imuse.ErrCorruptSaveState):
		return protocol.ErrorCorruptState
	}
	return protocol.ErrorInternal
}

// handleCommand runs one command and builds its reply
func (s *Server) handleCommand(msg protocol.Message) protocol.Message {
	var (
		result interface{}
		err    error
	)

	switch msg.Type {
	case protocol.TypeTrackStart:
		result, err = s.trackStart(msg.Payload)
	case protocol.TypeTrackStop:
		result, err = s.trackStop(msg.Payload)
	case protocol.TypeTrackFade:
		result, err = s.trackFade(msg.Payload)
	case protocol.TypeTrackHook:
		result, err = s.trackHook(msg.Payload)
	case protocol.TypeEnginePause:
		result, err = s.enginePause(msg.Payload)
	case protocol.TypeEngineGroupVolume:
		result, err = s.engineGroupVolume(msg.Payload)
	case protocol.TypeEngineSave:
		result, err = s.engineSave()
	case protocol.TypeEngineRestore:
		result, err = s.engineRestore(msg.Payload)
	case protocol.TypeEngineStatus:
		result = s.Status()
	default:
		log.Printf("Unknown message type: %s", msg.Type)
		return errorMessage(msg.ID, protocol.ErrorUnknownCommand, "unknown command "+msg.Type)
	}

	if err != nil {
		log.Printf("Command %s failed: %v", msg.Type, err)
		return errorMessage(msg.ID, errorCode(err), err.Error())
	}
	return protocol.Message{Type: msg.Type, ID: msg.ID, Payload: result}
}

func (s *Server) trackStart(payload interface{}) (interface{}, error) {
	var req protocol.TrackStart
	if err := decodePayload(payload, &req); err != nil {
		return nil, badRequest("%v", err)
	}
	if req.Sound == "" {
		return nil, badRequest("sound is required")
	}
	if req.Group < imuse.GroupNone || req.Group > imuse.GroupMusic {
		return nil, badRequest("unknown volume group %d", req.Group)
	}

	volume, pan := imuse.MaxLevel, imuse.CenterPan
	if req.Volume != nil {
		volume = *req.Volume
	}
	if req.Pan != nil {
		pan = *req.Pan
	}

	id, err := s.engine.StartSound(req.Sound, req.Group, req.Hook, volume, pan, req.Priority)
	if err != nil {
		return nil, err
	}
	return protocol.TrackStarted{TrackID: id}, nil
}

func (s *Server) trackStop(payload interface{}) (interface{}, error) {
	var req protocol.TrackStop
	if err := decodePayload(payload, &req); err != nil {
		return nil, badRequest("%v", err)
	}

	switch {
	case req.All:
		n := len(s.engine.Tracks())
		s.engine.StopAllSounds()
		return protocol.TrackStopped{Stopped: n}, nil
	case req.TrackID != nil:
		if err := s.engine.StopTrack(*req.TrackID); err != nil {
			return nil, err
		}
		return protocol.TrackStopped{Stopped: 1}, nil
	case req.Sound != "":
		return protocol.TrackStopped{Stopped: s.engine.StopSound(req.Sound)}, nil
	}
	return nil, badRequest("one of track_id, sound or all is required")
}

func (s *Server) trackFade(payload interface{}) (interface{}, error) {
	var req protocol.TrackFade
	if err := decodePayload(payload, &req); err != nil {
		return nil, badRequest("%v", err)
	}
	if req.FadeMs < 0 {
		return nil, badRequest("negative fade_ms %d", req.FadeMs)
	}

	ticks := s.msToTicks(req.FadeMs)
	if req.Music {
		s.engine.FadeOutMusic(ticks)
		return struct{}{}, nil
	}
	if req.Volume == nil && req.Pan == nil {
		return nil, badRequest("volume or pan is required")
	}

	if req.Volume != nil {
		if err := s.engine.SetFadeVolume(req.TrackID, *req.Volume, ticks); err != nil {
			return nil, err
		}
	}
	if req.Pan != nil {
		if err := s.engine.SetFadePan(req.TrackID, *req.Pan, ticks); err != nil {
			return nil, err
		}
	}
	return struct{}{}, nil
}

func (s *Server) trackHook(payload interface{}) (interface{}, error) {
	var req protocol.TrackHook
	if err := decodePayload(payload, &req); err != nil {
		return nil, badRequest("%v", err)
	}
	if err := s.engine.SetHookID(req.TrackID, req.Hook); err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

func (s *Server) enginePause(payload interface{}) (interface{}, error) {
	var req protocol.EnginePause
	if err := decodePayload(payload, &req); err != nil {
		return nil, badRequest("%v", err)
	}
	s.engine.SetPause(req.Paused)
	return req, nil
}

func (s *Server) engineGroupVolume(payload interface{}) (interface{}, error) {
	var req protocol.EngineGroupVolume
	if err := decodePayload(payload, &req); err != nil {
		return nil, badRequest("%v", err)
	}
	if err := s.engine.SetGroupVolume(req.Group, req.Volume); err != nil {
		return nil, badRequest("%v", err)
	}
	return protocol.EngineGroupVolume{Group: req.Group, Volume: s.engine.GroupVolume(req.Group)}, nil
}

func (s *Server) engineSave() (interface{}, error) {
	data, err := s.engine.Snapshot()
	if err != nil {
		return nil, err
	}
	log.Printf("Saved engine state (%d bytes)", len(data))
	return protocol.EngineState{Data: data}, nil
}

func (s *Server) engineRestore(payload interface{}) (interface{}, error) {
	var req protocol.EngineState
	if err := decodePayload(payload, &req); err != nil {
		return nil, badRequest("%v", err)
	}
	if err := s.engine.Restore(req.Data); err != nil {
		return nil, err
	}
	log.Printf("Restored engine state (%d bytes)", len(req.Data))
	return s.Status(), nil
}

// Status reports the engine state
func (s *Server) Status() protocol.EngineStatus {
	e := s.engine
	maxTracks := e.Config().MaxTracks

	status := protocol.EngineStatus{
		Paused: e.Paused(),
		GroupVolumes: map[int]int{
			imuse.GroupVoice: e.GroupVolume(imuse.GroupVoice),
			imuse.GroupSFX:   e.GroupVolume(imuse.GroupSFX),
			imuse.GroupMusic: e.GroupVolume(imuse.GroupMusic),
		},
		MusicSound:    e.CurMusicSoundName(),
		MusicState:    e.MusicState(),
		MusicSequence: e.MusicSequence(),
		VoicePlaying:  e.IsVoicePlaying(),
		Tracks:        []protocol.TrackStatus{},
	}

	for _, t := range e.Tracks() {
		status.Tracks = append(status.Tracks, protocol.TrackStatus{
			TrackID:   t.ID,
			Sound:     t.SoundName,
			Group:     t.VolGroupID,
			Volume:    t.VolumeLevel(),
			Pan:       t.PanLevel(),
			Priority:  t.Priority,
			Region:    t.CurRegion,
			Hook:      t.CurHookID,
			Position:  t.PosIn60HzTicks(),
			FadeClone: t.IsFadeClone(maxTracks),
			Stopping:  t.ToBeRemoved || t.ReadyToRemove,
		})
	}
	return status
}

// msToTicks converts a duration to engine callback ticks
func (s *Server) msToTicks(ms int) int {
	return s.engine.Config().CallbackFPS * ms / 1000
}
