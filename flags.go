package main

import "github.com/spf13/cobra"

// Command-line flags that control optional rendering, runtime and serving
// behaviour. Each is bound to the command that reads it.
var (
	// verboseFlag lowers the log level to debug.
	verboseFlag bool

	// logFileFlag sends logs to a file instead of stderr.
	logFileFlag string

	// tuningFlag names an optional INI file overriding sculpture defaults.
	tuningFlag string

	// reducedMotionFlag holds the ambient wave at zero.
	reducedMotionFlag bool

	// gpuFlag asks the loader for the OpenCL stepper.
	gpuFlag bool

	// workersFlag sizes the CPU stepper's worker pool; 1 steps on the render
	// thread and 0 uses one worker per CPU.
	workersFlag int

	// cpuProfileFlag writes a CPU profile to the named file while running.
	cpuProfileFlag string

	// debugFlag enables the FPS and sculpture state overlay.
	debugFlag bool

	// enableAudioFlag toggles the drone driven by pointer disturbance.
	enableAudioFlag bool

	// windowScaleFlag multiplies the initial window size.
	windowScaleFlag float64

	// frameIntervalFlag paces the terminal host.
	frameIntervalFlag = termFrameInterval

	// addrFlag is the HTTP listen address for serve.
	addrFlag string

	// sitePathFlag names the YAML site configuration.
	sitePathFlag string
)

func bindRootFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&verboseFlag, "verbose", "v", false, "log at debug level")
	pf.StringVar(&logFileFlag, "log-file", "", "write logs to this file instead of stderr")
	pf.StringVar(&cpuProfileFlag, "cpuprofile", "", "write a CPU profile to this file")
	pf.StringVar(&sitePathFlag, "site", "", "site configuration YAML (defaults built in)")
}

// bindSculptureFlags registers the flags shared by the window and terminal
// hosts.
func bindSculptureFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&tuningFlag, "tuning", "", "sculpture tuning file (INI syntax)")
	f.BoolVar(&reducedMotionFlag, "reduced-motion", false, "hold the ambient wave still")
	f.BoolVar(&gpuFlag, "gpu", false, "step the field with OpenCL when built with -tags opencl")
	f.IntVar(&workersFlag, "workers", 1, "CPU stepper goroutines (0 = one per CPU)")
}

func bindWindowFlags(cmd *cobra.Command) {
	bindSculptureFlags(cmd)
	f := cmd.Flags()
	f.BoolVar(&debugFlag, "debug", false, "show FPS and sculpture state overlay")
	f.BoolVar(&enableAudioFlag, "enable-audio", false, "play a drone that follows pointer disturbance")
	f.Float64Var(&windowScaleFlag, "window-scale", defaultWindowScale, "initial window size multiplier")
}

func bindTermFlags(cmd *cobra.Command) {
	bindSculptureFlags(cmd)
	cmd.Flags().DurationVar(&frameIntervalFlag, "frame-interval", termFrameInterval, "time between terminal frames")
}

func bindServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&addrFlag, "addr", defaultAddr, "HTTP listen address")
}
