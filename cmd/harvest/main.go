// harvest continuously reads raw entropy from a hardware device or a CPU
// random-number instruction and streams it, byte-exact, to standard output or
// to a path opened in append mode. The path may be a FIFO pre-created by a
// supervisor, so the stream can feed an entropy-mixing daemon such as rngd.
//
// SIGINT, SIGTERM and SIGPIPE stop the run cleanly; SIGHUP emits a counter
// line without disturbing the stream. Diagnostics go to standard error, or to
// the system log with -D.
//
// Examples:
//
//	harvest -v -device trng -bytes 0
//	harvest -device bitb -unit 0 | dd of=random.dat bs=4096 count=1024 iflag=fullblock
//	mkfifo entropy.fifo && harvest -D -i HARVEST -device cpu -c -o entropy.fifo
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Thiagojm/harvest_go_cli/bbusb"
	"github.com/Thiagojm/harvest_go_cli/cpurng"
	"github.com/Thiagojm/harvest_go_cli/diag"
	"github.com/Thiagojm/harvest_go_cli/harvest"
	"github.com/Thiagojm/harvest_go_cli/naming"
	"github.com/Thiagojm/harvest_go_cli/pseudorng"
	"github.com/Thiagojm/harvest_go_cli/truerng"
)

func main() {
	os.Exit(run())
}

func run() int {
	deviceFlag := flag.String("device", "trng", "source family: trng|bitb|cpu|pseudo")
	unitFlag := flag.Int("unit", 0, "hardware unit index")
	instrFlag := flag.String("instr", "rdrand", "cpu instruction: rdrand|rdseed")
	bytesFlag := flag.Int("bytes", 512, "chunk size in bytes (0 = query devices and exit)")
	outFlag := flag.String("o", "", "write to PATH (which may be a fifo) instead of stdout")
	outdirFlag := flag.String("outdir", "", "write to an auto-named capture file in DIR")
	checkFlag := flag.Bool("c", false, "exit non-zero unless the requested device is present")
	detachFlag := flag.Bool("D", false, "route diagnostics to the system log")
	verboseFlag := flag.Bool("v", false, "enable verbose diagnostics")
	debugFlag := flag.Bool("d", false, "emit the counter line after every chunk")
	identFlag := flag.String("i", "harvest", "system log identifier")
	seedFlag := flag.Uint64("seed", 0, "deterministic seed for the pseudo device")
	flag.Parse()

	log, err := diag.New(diag.Options{
		Detached: *detachFlag,
		Verbose:  *verboseFlag,
		Ident:    *identFlag,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	dev := naming.Device(*deviceFlag)
	if err := dev.Validate(); err != nil {
		log.Errorf("%v", err)
		return 1
	}
	instr := cpurng.Instruction(*instrFlag)
	if dev == naming.DeviceCPU {
		if err := instr.Validate(); err != nil {
			log.Errorf("%v", err)
			return 1
		}
	}
	if *bytesFlag < 0 {
		log.Errorf("-bytes must be >= 0, got %d", *bytesFlag)
		return 1
	}
	if *outFlag != "" && *outdirFlag != "" {
		log.Errorf("-o and -outdir are mutually exclusive")
		return 1
	}

	present := query(log, dev, *unitFlag, instr)
	if *checkFlag && !present {
		log.Errorf("%s unit %d: not detected", dev, *unitFlag)
		return 1
	}

	// A zero chunk size is a deliberate query-only invocation: the device
	// scan above is all that was asked for.
	if *bytesFlag == 0 {
		return 0
	}

	chunk := harvest.ClampChunk(*bytesFlag)
	if chunk != *bytesFlag {
		log.Debugf("chunk size %d clamped to %d", *bytesFlag, chunk)
	}

	var src harvest.Source
	switch dev {
	case naming.DeviceTrueRNG:
		src = &truerng.Session{Unit: *unitFlag}
	case naming.DeviceBitBabbler:
		src = &bbusb.Session{Unit: *unitFlag}
	case naming.DeviceCPU:
		// The instruction delivers one 32-bit word per execution; the
		// stream is whole words regardless of the requested chunk.
		if chunk != cpurng.WordSize {
			log.Debugf("chunk size forced to %d for the cpu device", cpurng.WordSize)
			chunk = cpurng.WordSize
		}
		src = &cpurng.Session{Instr: instr}
	case naming.DevicePseudo:
		src = &pseudorng.Session{Seed: *seedFlag}
	}

	dest := *outFlag
	if *outdirFlag != "" {
		dest, err = naming.BuildCapturePath(*outdirFlag, time.Now(), dev, chunk)
		if err != nil {
			log.Errorf("build capture path: %v", err)
			return 1
		}
	}
	if dest != "" {
		log.Debugf("path %q", dest)
	}

	flags := harvest.NewFlags()
	flags.Install()
	defer flags.Uninstall()

	h, err := harvest.New(harvest.Config{
		Source: src,
		Sink:   &harvest.FileSink{Path: dest},
		Flags:  flags,
		Chunk:  chunk,
		Log:    log,
		Debug:  *debugFlag,
	})
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}

	log.Debugf("harvesting %d byte chunks from %s", chunk, src)
	if err := h.Run(); err != nil {
		return 1
	}
	return 0
}

// query scans every supported source family, reporting what it finds in
// verbose mode, and returns whether the requested device is present. A failed
// scan of one family just reads as "not detected" for that family.
func query(log *zap.SugaredLogger, want naming.Device, unit int, instr cpurng.Instruction) bool {
	present := want == naming.DevicePseudo

	tunits, err := truerng.Enumerate()
	if err != nil {
		log.Debugf("trng: %v", err)
	}
	log.Debugf("trng: detected %d", len(tunits))
	for i, u := range tunits {
		log.Debugf("trng: unit %d port %s product %q serial %q vid %s pid %s",
			i, u.Port, u.Product, u.SerialNumber, u.VID, u.PID)
	}
	if want == naming.DeviceTrueRNG && unit >= 0 && unit < len(tunits) {
		present = true
	}

	bunits, err := bbusb.Enumerate()
	if err != nil {
		log.Debugf("bitb: %v", err)
	}
	log.Debugf("bitb: detected %d", len(bunits))
	for _, u := range bunits {
		log.Debugf("bitb: unit %d bus %d addr %d serial %q manufacturer %q power %dmA self=%v modules 0x%08x",
			u.Unit, u.Bus, u.Address, u.SerialNumber, u.Manufacturer,
			u.MaxPowerMilliAmps, u.SelfPowered, u.InterfaceMask)
	}
	if want == naming.DeviceBitBabbler && unit >= 0 && unit < len(bunits) {
		present = true
	}

	info := cpurng.Query()
	log.Debugf("cpu: rdrand %v rdseed %v", info.RdrandSupported, info.RdseedSupported)
	if want == naming.DeviceCPU {
		switch instr {
		case cpurng.Rdrand:
			present = info.RdrandSupported
		case cpurng.Rdseed:
			present = info.RdseedSupported
		}
	}

	return present
}
