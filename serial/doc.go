// Package serial opens the RS-232 line a K720 dispenser hangs off.
//
// Two backends are provided. Open talks termios directly through
// golang.org/x/sys/unix and is the default. OpenPortable goes through
// go.bug.st/serial for adapters whose drivers reject raw ioctls. Both
// return a Port whose Read returns 0, nil when the read timeout elapses,
// which the k720 decoder treats as a timeout.
//
//	port, err := serial.Open("/dev/ttyUSB0", serial.WithReadTimeout(2*time.Second))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer port.Close()
//
// ListPorts and GetPortInfo enumerate candidate devices and read USB
// descriptors from sysfs, so a dispenser can be located by its adapter
// serial number with FindBySerialNumber.
package serial
