package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ragnar-no-sleep/cynic/taskdesc"
)

func noopDescriptor() taskdesc.Descriptor {
	return taskdesc.Descriptor{PrimaryType: taskdesc.TypeUnknown}
}

func TestConsecutiveFailuresTriggersStuck(t *testing.T) {
	d := New(nil)
	for i := 0; i < 3; i++ {
		d.Record(Event{Agent: "scribe", Success: false})
	}
	reasons := d.StuckReasons("scribe")
	assert.Contains(t, reasons, ReasonConsecutiveFailures)
}

func TestFileHotspotDetected(t *testing.T) {
	d := New(nil)
	for i := 0; i < 3; i++ {
		d.Record(Event{Agent: "scribe", File: "main.go", Success: false})
	}
	assert.Contains(t, d.StuckReasons("scribe"), ReasonFileHotspot)
}

func TestSuggestRespectsCooldown(t *testing.T) {
	d := New(nil)
	d.cooldown = time.Hour
	first := d.Suggest(noopDescriptor(), "ctx", nil)
	assert.NotNil(t, first)
	second := d.Suggest(noopDescriptor(), "ctx", nil)
	assert.Nil(t, second)
}

func TestSuggestConfidenceNeverExceedsPhiInv(t *testing.T) {
	d := New(nil)
	suggestions := d.Suggest(noopDescriptor(), "ctx", nil)
	for _, s := range suggestions {
		assert.LessOrEqual(t, s.Confidence, 0.6180339887498949+1e-9)
	}
}
