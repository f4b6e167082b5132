// Package twiml builds the call-control documents that direct the
// telephony provider's media stream to this service.
package twiml

import (
	"encoding/xml"
	"fmt"
)

// Response is the root call-control document.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Connect *Connect `xml:"Connect,omitempty"`
}

// Connect routes the call's media to a bidirectional stream.
type Connect struct {
	Stream Stream `xml:"Stream"`
}

// Stream names the websocket endpoint the provider should connect to.
type Stream struct {
	URL string `xml:"url,attr"`
}

// MediaStreamPath is the fixed websocket path for caller media.
const MediaStreamPath = "/media-stream"

// ConnectStream renders the document directing the caller's media to the
// relay endpoint on the given externally-reachable host.
func ConnectStream(host string) ([]byte, error) {
	doc := Response{
		Connect: &Connect{
			Stream: Stream{URL: fmt.Sprintf("wss://%s%s", host, MediaStreamPath)},
		},
	}
	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal call-control document: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
