package singleinstance

import (
	"encoding/json"
	"fmt"
	"strings"

	"screen-ocr-translate/src/llm"
)

const (
	residentHost = "127.0.0.1"
	pingRequest  = "PING\n"
	pongResponse = "PONG\n"

	captureVerb   = "CAPTURE"
	waitFlag      = "WAIT"
	statusSuccess = "SUCCESS\n"
	statusError   = "ERROR\n"
)

// encodeRequest renders the request line.
func encodeRequest(r Request) string {
	if r.Wait {
		return captureVerb + " " + waitFlag + "\n"
	}
	return captureVerb + "\n"
}

// parseRequest reads a request line; unknown verbs are rejected.
func parseRequest(line string) (Request, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != captureVerb {
		return Request{}, fmt.Errorf("unknown request %q", strings.TrimSpace(line))
	}
	req := Request{}
	for _, f := range fields[1:] {
		if f == waitFlag {
			req.Wait = true
		}
	}
	return req, nil
}

func encodeResult(res llm.Result) ([]byte, error) {
	return json.Marshal(res)
}

func decodeResult(body []byte) (llm.Result, error) {
	var res llm.Result
	if len(strings.TrimSpace(string(body))) == 0 {
		return res, nil
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return llm.Result{}, fmt.Errorf("decode result: %w", err)
	}
	return res, nil
}
