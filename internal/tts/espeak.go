package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <espeak-ng/speak_lib.h>

static int
echo_say(const char *text, const char *lang, int rate, int volume)
{
	if (!text || !lang)
	{ return -1; }

	if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
	{ return -2; }

	espeak_VOICE specs = { 0 };
	specs.languages = lang;
	espeak_SetVoiceByProperties(&specs);
	espeak_SetParameter(espeakRATE, rate, 0);
	espeak_SetParameter(espeakVOLUME, volume, 0);

	espeak_ERROR rc = espeak_Synth(text, 0, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL);
	espeak_Synchronize();
	espeak_Terminate();

	return rc == EE_OK ? 0 : -3;
}
*/
import "C"

import (
	"fmt"
	log "log/slog"
	"sync"
	"unsafe"
)

type Speaker struct {
	mu     sync.Mutex
	lang   string
	rate   int // words per minute
	volume int // 0-200, 100 normal
}

func NewSpeaker(lang string, rate, volume int) *Speaker {
	if lang == "" {
		lang = "en"
	}
	if rate <= 0 {
		rate = 180
	}
	if volume <= 0 {
		volume = 100
	}
	return &Speaker{lang: lang, rate: rate, volume: volume}
}

// Speak blocks until playback finishes.
func (s *Speaker) Speak(text string) error {
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log.Debug("Speaking", "text", text)

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))
	clang := C.CString(s.lang)
	defer C.free(unsafe.Pointer(clang))

	rc := C.echo_say(ctext, clang, C.int(s.rate), C.int(s.volume))
	if rc != 0 {
		return fmt.Errorf("espeak say failed: %d", int(rc))
	}

	return nil
}
