// Command flashd programs, erases, verifies and locks PIC32CX flash memory
// over a debug-monitor serial link, or against the built-in simulator.
package main

import (
	goflag "flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/CristianGuemes/go-flashd/flashd"
	"github.com/CristianGuemes/go-flashd/sefc"
	"github.com/CristianGuemes/go-flashd/serialbus"
	"github.com/CristianGuemes/go-flashd/simulator"
)

var (
	flagPort    string
	flagBaud    int
	flagSim     bool
	flagChip    string
	flagTimeout time.Duration
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flashd",
	Short: "Flash programming tool for PIC32CX-MT devices",
	Long: `flashd talks to the flash controller of a PIC32CX-MT target, either
through a serial debug monitor or against a built-in simulator, and can
program, erase, verify, lock and inspect the flash memory.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&flagPort, "port", "p", "", "serial port of the debug monitor")
	rootCmd.PersistentFlags().IntVarP(&flagBaud, "baud", "b", 115200, "serial baud rate")
	rootCmd.PersistentFlags().BoolVar(&flagSim, "sim", false, "use the built-in simulator instead of hardware")
	rootCmd.PersistentFlags().StringVar(&flagChip, "chip", "pic32cx2051mtg", "chip variant (pic32cx2051mtg, pic32cx0212mtg)")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 5*time.Second, "flash controller ready timeout")
	rootCmd.PersistentFlags().AddGoFlagSet(goflag.CommandLine)

	defer glog.Flush()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// geometry resolves the --chip flag to a device geometry.
func geometry() (sefc.Geometry, error) {
	switch strings.ToLower(flagChip) {
	case "pic32cx2051mtg":
		return sefc.PIC32CX2051MTG(), nil
	case "pic32cx0212mtg":
		return sefc.PIC32CX0212MTG(), nil
	default:
		return sefc.Geometry{}, fmt.Errorf("unknown chip %q", flagChip)
	}
}

// openDriver connects the selected bus and returns a ready driver plus a
// cleanup function.
func openDriver(opts ...flashd.Option) (*flashd.Driver, func(), error) {
	geo, err := geometry()
	if err != nil {
		return nil, nil, err
	}

	var bus sefc.Bus
	cleanup := func() {}
	switch {
	case flagSim:
		bus = simulator.New(geo)
	case flagPort != "":
		sb, err := serialbus.Open(flagPort, flagBaud)
		if err != nil {
			return nil, nil, err
		}
		bus = sb
		cleanup = func() {
			if err := sb.Close(); err != nil {
				glog.Errorf("close %s: %v", flagPort, err)
			}
		}
	default:
		return nil, nil, fmt.Errorf("no target: pass --port or --sim")
	}

	opts = append([]flashd.Option{
		flashd.WithWaitTimeout(flagTimeout),
		flashd.WithLogger(glogLogger{}),
	}, opts...)

	drv, err := flashd.New(bus, geo, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return drv, cleanup, nil
}

// glogLogger bridges the driver's structured log calls onto glog. Debug
// messages land at verbosity 1, enabled with -v=1.
type glogLogger struct{}

func (glogLogger) Debug(msg string, keysAndValues ...interface{}) {
	glog.V(1).Infoln(append([]interface{}{msg}, keysAndValues...)...)
}

func (glogLogger) Info(msg string, keysAndValues ...interface{}) {
	glog.Infoln(append([]interface{}{msg}, keysAndValues...)...)
}

func (glogLogger) Error(msg string, keysAndValues ...interface{}) {
	glog.Errorln(append([]interface{}{msg}, keysAndValues...)...)
}
