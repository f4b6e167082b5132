// callsim simulates a telephony media stream against a running relay:
// it connects to the media-stream endpoint, sends a start frame and timed
// media frames (mu-law silence, or audio from a WAV file), echoes mark
// frames the way the real caller leg does, and prints what comes back.
package main

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

// 20ms of G.711 mu-law at 8kHz is 160 bytes; 0xFF is mu-law silence.
const (
	chunkBytes      = 160
	chunkIntervalMs = 20
)

type frame struct {
	Event     string          `json:"event"`
	StreamSid string          `json:"streamSid,omitempty"`
	Start     *startBody      `json:"start,omitempty"`
	Media     *mediaBody      `json:"media,omitempty"`
	Mark      json.RawMessage `json:"mark,omitempty"`
}

type startBody struct {
	StreamSid string `json:"streamSid"`
	CallSid   string `json:"callSid"`
}

type mediaBody struct {
	Timestamp string `json:"timestamp"`
	Payload   string `json:"payload"`
}

func main() {
	serverURL := flag.String("server", "ws://localhost:5050/media-stream", "Relay media-stream URL")
	streamSid := flag.String("stream", "SIM"+time.Now().Format("150405"), "Simulated stream SID")
	duration := flag.Duration("duration", 30*time.Second, "How long to stream audio")
	audioFile := flag.String("audio", "", "Path to WAV file (8kHz 16-bit mono PCM); silence when unset")
	flag.Parse()

	audio := muLawSilence(*duration)
	if *audioFile != "" {
		var err error
		audio, err = loadWAVAsMuLaw(*audioFile)
		if err != nil {
			log.Fatalf("Failed to load audio file: %v", err)
		}
		log.Printf("Loaded %s (%d bytes mu-law, %.1fs)", *audioFile, len(audio),
			float64(len(audio))/8000.0)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("Connected to %s", *serverURL)

	// One write mutex for the media loop and the mark-echo goroutine.
	var writeMu sync.Mutex
	writeJSON := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(v)
	}

	// Reader: print outbound frames, echo marks back
	marks := make(chan json.RawMessage, 64)
	go func() {
		defer close(marks)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				log.Printf("Read ended: %v", err)
				return
			}
			var f frame
			if err := json.Unmarshal(data, &f); err != nil {
				log.Printf("Unparsable frame: %s", data)
				continue
			}
			switch f.Event {
			case "media":
				log.Printf("<- media (%d payload bytes)", len(f.Media.Payload))
			case "mark":
				log.Printf("<- mark %s", f.Mark)
				marks <- f.Mark
			case "clear":
				log.Printf("<- clear (interruption)")
			default:
				log.Printf("<- %s", f.Event)
			}
		}
	}()

	// Echo marks the way the real caller leg acknowledges playback
	go func() {
		for m := range marks {
			echo := frame{Event: "mark", StreamSid: *streamSid, Mark: m}
			if err := writeJSON(echo); err != nil {
				return
			}
		}
	}()

	start := frame{
		Event: "start",
		Start: &startBody{
			StreamSid: *streamSid,
			CallSid:   "CA" + *streamSid,
		},
	}
	if err := writeJSON(start); err != nil {
		log.Fatalf("Failed to send start: %v", err)
	}
	log.Printf("Stream started: %s", *streamSid)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(chunkIntervalMs * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(*duration)

	var ts int64
	var offset int
	for {
		select {
		case <-ticker.C:
			if offset >= len(audio) {
				fmt.Println("Audio exhausted")
				closeStream(conn)
				return
			}
			end := offset + chunkBytes
			if end > len(audio) {
				end = len(audio)
			}
			m := frame{
				Event:     "media",
				StreamSid: *streamSid,
				Media: &mediaBody{
					Timestamp: strconv.FormatInt(ts, 10),
					Payload:   base64.StdEncoding.EncodeToString(audio[offset:end]),
				},
			}
			if err := writeJSON(m); err != nil {
				log.Fatalf("Failed to send media: %v", err)
			}
			offset = end
			ts += chunkIntervalMs
		case <-deadline:
			fmt.Println("Done streaming")
			closeStream(conn)
			return
		case <-sig:
			return
		}
	}
}

func closeStream(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

func muLawSilence(d time.Duration) []byte {
	n := int(d.Milliseconds()/chunkIntervalMs+1) * chunkBytes
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = 0xFF
	}
	return buf
}

// loadWAVAsMuLaw reads an 8kHz 16-bit mono PCM WAV file and converts the
// samples to G.711 mu-law.
func loadWAVAsMuLaw(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, fmt.Errorf("read WAV header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a WAV file")
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	numChannels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])

	if audioFormat != 1 || bitsPerSample != 16 || numChannels != 1 {
		return nil, fmt.Errorf("need 16-bit mono PCM, got format=%d channels=%d bits=%d",
			audioFormat, numChannels, bitsPerSample)
	}
	if sampleRate != 8000 {
		log.Printf("Warning: Sample rate is %d Hz, expected 8000 Hz", sampleRate)
	}

	pcm, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(pcm)/2)
	for i := range out {
		sample := int16(binary.LittleEndian.Uint16(pcm[2*i : 2*i+2]))
		out[i] = pcmToMuLaw(sample)
	}
	return out, nil
}

// pcmToMuLaw encodes one linear PCM sample per ITU-T G.711.
func pcmToMuLaw(sample int16) byte {
	const bias = 0x84
	const clip = 32635

	s := int32(sample)
	sign := byte(0)
	if s < 0 {
		sign = 0x80
		s = -s
	}
	if s > clip {
		s = clip
	}
	s += bias

	exponent := byte(7)
	for mask := int32(0x4000); exponent > 0 && s&mask == 0; mask >>= 1 {
		exponent--
	}
	mantissa := byte((s >> (exponent + 3)) & 0x0F)
	return ^(sign | exponent<<4 | mantissa)
}
