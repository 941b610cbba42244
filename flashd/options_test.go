package flashd

import (
	"testing"
	"time"

	"github.com/CristianGuemes/go-flashd/sefc"
	"github.com/CristianGuemes/go-flashd/simulator"
)

func TestOptionsReachControllers(t *testing.T) {
	dev := simulator.New(sefc.PIC32CX2051MTG())
	iap := dev.IAP()

	drv, err := New(dev, dev.Geometry(),
		WithIAP(iap),
		WithWaitTimeout(5*time.Second),
		WithPollInterval(time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}

	for _, ctrl := range drv.banks {
		if ctrl.IAP == nil {
			t.Error("IAP trampoline not installed on controller")
		}
		if ctrl.WaitTimeout != 5*time.Second {
			t.Errorf("WaitTimeout = %v", ctrl.WaitTimeout)
		}
		if ctrl.PollInterval != time.Millisecond {
			t.Errorf("PollInterval = %v", ctrl.PollInterval)
		}
	}
}

func TestNewPanicsOnNilBus(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil bus")
		}
	}()
	New(nil, sefc.PIC32CX2051MTG())
}

func TestNewRejectsInvalidGeometry(t *testing.T) {
	dev := simulator.New(sefc.PIC32CX2051MTG())
	bad := sefc.PIC32CX2051MTG()
	bad.Pages = 13
	if _, err := New(dev, bad); err == nil {
		t.Error("expected error for invalid geometry")
	}
}
