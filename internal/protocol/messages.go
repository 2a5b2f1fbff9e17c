// ABOUTME: Control protocol message type definitions
// ABOUTME: Defines structs for every command and reply exchanged over the websocket
package protocol

// Version is the control protocol version
const Version = 1

// Message types
const (
	TypeClientHello = "client/hello"
	TypeServerHello = "server/hello"
	TypeServerError = "server/error"

	TypeTrackStart = "track/start"
	TypeTrackStop  = "track/stop"
	TypeTrackFade  = "track/fade"
	TypeTrackHook  = "track/hook"

	TypeEnginePause       = "engine/pause"
	TypeEngineGroupVolume = "engine/group_volume"
	TypeEngineSave        = "engine/save"
	TypeEngineRestore     = "engine/restore"
	TypeEngineStatus      = "engine/status"
)

// Message is the top-level wrapper for all protocol messages. A reply
// carries the ID of the command it answers and the same Type, or
// server/error.
type Message struct {
	Type    string      `json:"type"`
	ID      string      `json:"id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID   string      `json:"client_id"`
	Name       string      `json:"name"`
	Version    int         `json:"version"`
	DeviceInfo *DeviceInfo `json:"device_info,omitempty"`
}

// DeviceInfo contains device identification
type DeviceInfo struct {
	ProductName     string `json:"product_name"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID    string `json:"server_id"`
	Name        string `json:"name"`
	Version     int    `json:"version"`
	CallbackFPS int    `json:"callback_fps"`
	MaxTracks   int    `json:"max_tracks"`
}

// ServerError reports a rejected command
type ServerError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Error codes carried in ServerError
const (
	ErrorBadRequest      = "bad_request"
	ErrorUnknownCommand  = "unknown_command"
	ErrorNotFound        = "not_found"
	ErrorCapacity        = "capacity_exhausted"
	ErrorNoSuchTrack     = "no_such_track"
	ErrorCorruptState    = "corrupt_state"
	ErrorDuplicateClient = "duplicate_client_id"
	ErrorRateLimited     = "rate_limited"
	ErrorInternal        = "internal"
)

// TrackStart asks the engine to start a sound. Volume and Pan are 0-127;
// nil selects full volume and center pan.
type TrackStart struct {
	Sound    string `json:"sound"`
	Group    int    `json:"group"`
	Hook     int    `json:"hook,omitempty"`
	Volume   *int   `json:"volume,omitempty"`
	Pan      *int   `json:"pan,omitempty"`
	Priority int    `json:"priority,omitempty"`
}

// TrackStarted answers track/start
type TrackStarted struct {
	TrackID int `json:"track_id"`
}

// TrackStop stops a track by ID, every instance of a sound, or everything
type TrackStop struct {
	TrackID *int   `json:"track_id,omitempty"`
	Sound   string `json:"sound,omitempty"`
	All     bool   `json:"all,omitempty"`
}

// TrackStopped answers track/stop
type TrackStopped struct {
	Stopped int `json:"stopped"`
}

// TrackFade ramps a track's volume and/or pan. With Music set it fades
// every music track out and TrackID is ignored.
type TrackFade struct {
	TrackID int  `json:"track_id"`
	Volume  *int `json:"volume,omitempty"`
	Pan     *int `json:"pan,omitempty"`
	FadeMs  int  `json:"fade_ms"`
	Music   bool `json:"music,omitempty"`
}

// TrackHook sets the hook a track offers at its next region boundary
type TrackHook struct {
	TrackID int `json:"track_id"`
	Hook    int `json:"hook"`
}

// EnginePause suspends or resumes the engine
type EnginePause struct {
	Paused bool `json:"paused"`
}

// EngineGroupVolume sets a volume group's level (0-127)
type EngineGroupVolume struct {
	Group  int `json:"group"`
	Volume int `json:"volume"`
}

// EngineState carries a save stream, base64 encoded by encoding/json.
// It answers engine/save and is the payload of engine/restore.
type EngineState struct {
	Data []byte `json:"data"`
}

// EngineStatus answers engine/status
type EngineStatus struct {
	Paused        bool          `json:"paused"`
	GroupVolumes  map[int]int   `json:"group_volumes"`
	MusicSound    string        `json:"music_sound,omitempty"`
	MusicState    int           `json:"music_state"`
	MusicSequence int           `json:"music_sequence"`
	VoicePlaying  bool          `json:"voice_playing"`
	Tracks        []TrackStatus `json:"tracks"`
}

// TrackStatus describes one busy track slot
type TrackStatus struct {
	TrackID   int    `json:"track_id"`
	Sound     string `json:"sound"`
	Group     int    `json:"group"`
	Volume    int    `json:"volume"`
	Pan       int    `json:"pan"`
	Priority  int    `json:"priority"`
	Region    int    `json:"region"`
	Hook      int    `json:"hook"`
	Position  int    `json:"position_60hz"`
	FadeClone bool   `json:"fade_clone,omitempty"`
	Stopping  bool   `json:"stopping,omitempty"`
}
