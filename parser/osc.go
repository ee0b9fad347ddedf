package parser

import (
	"bytes"
	"encoding/hex"
	"strings"
)

func (t *Terminal) beginOSC() {
	t.state = stateOSC
	t.oscBuf = t.oscBuf[:0]
}

func (t *Terminal) beginDCS() {
	t.state = stateDCS
	t.dcsBuf = t.dcsBuf[:0]
}

func (t *Terminal) processOSC(b byte) {
	switch b {
	case 0x07, 0x9c:
		t.state = stateGround
		t.handleOSC(t.oscBuf)
	case 0x1b:
		t.state = stateOSCEscape
	case 0x18, 0x1a:
		t.state = stateGround
	default:
		if len(t.oscBuf) < maxStringLen {
			t.oscBuf = append(t.oscBuf, b)
		}
	}
}

func (t *Terminal) processOSCEscape(b byte) {
	if b == '\\' {
		t.state = stateGround
		t.handleOSC(t.oscBuf)
		return
	}
	// Unterminated string: drop it and treat ESC as the start of a new sequence.
	t.state = stateEscape
	t.processEscape(b)
}

func (t *Terminal) handleOSC(payload []byte) {
	code, value, _ := bytes.Cut(payload, []byte{';'})
	text := strings.ToValidUTF8(string(value), "�")
	switch string(code) {
	case "0":
		t.title = text
		t.iconName = text
	case "1":
		t.iconName = text
	case "2":
		t.title = text
	}
	// Working-directory notifications (OSC 633) are consumed by the
	// directory tracker, which sees the raw stream.
}

func (t *Terminal) processDCS(b byte) {
	switch b {
	case 0x1b:
		t.state = stateDCSEscape
	case 0x07, 0x9c:
		t.state = stateGround
		t.handleDCS(t.dcsBuf)
	case 0x18, 0x1a:
		t.state = stateGround
	default:
		if len(t.dcsBuf) < maxStringLen {
			t.dcsBuf = append(t.dcsBuf, b)
		}
	}
}

func (t *Terminal) processDCSEscape(b byte) {
	if b == '\\' {
		t.state = stateGround
		t.handleDCS(t.dcsBuf)
		return
	}
	t.state = stateDCS
	if len(t.dcsBuf)+2 <= maxStringLen {
		t.dcsBuf = append(t.dcsBuf, 0x1b, b)
	}
}

func (t *Terminal) handleDCS(payload []byte) {
	if caps, ok := bytes.CutPrefix(payload, []byte("+q")); ok {
		t.getTermcap(string(caps))
	}
}

// termcaps answers XTGETTCAP queries.
var termcaps = map[string]string{
	"TN":  "xterm-256color",
	"Co":  "256",
	"RGB": "8/8/8",
}

// getTermcap replies to XTGETTCAP with one DCS per requested capability.
func (t *Terminal) getTermcap(hexNames string) {
	for _, name := range strings.Split(hexNames, ";") {
		raw, err := hex.DecodeString(name)
		value, known := termcaps[string(raw)]
		if err != nil || !known {
			t.reply([]byte("\x1bP0+r" + name + "\x1b\\"))
			continue
		}
		t.reply([]byte("\x1bP1+r" + name + "=" + hex.EncodeToString([]byte(value)) + "\x1b\\"))
	}
}
