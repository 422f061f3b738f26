// Package serialwatch discovers serial devices attached to a Linux host and
// reports them as they come and go.
//
// The library reads the device registry (sysfs) for every tty backed by real
// hardware, decodes each device's current line settings from its termios
// structure, and fans out attach/detach events to any number of subscribers.
//
// # Snapshots
//
// Take a synchronous snapshot of the attached devices:
//
//	devices, err := serialwatch.ConnectedDevices(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range devices {
//	    fmt.Printf("%s: %s (VID=%s PID=%s)\n",
//	        d.PortName, d.Config, d.VendorID, d.ProductID)
//	}
//
// A snapshot fails as a whole if any single device cannot be read, so an
// empty result always means no devices were found.
//
// # Monitoring
//
// A Monitor keeps the set of attached devices current and publishes events:
//
//	registry := serialwatch.NewSysfsRegistry()
//	monitor := serialwatch.NewMonitor(registry, serialwatch.WithLogger(logger))
//	if err := monitor.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer monitor.Close()
//
//	sub := monitor.Subscribe()
//	defer sub.Unsubscribe()
//	for ev := range sub.Events() {
//	    switch ev := ev.(type) {
//	    case serialwatch.Connected:
//	        fmt.Println("connected", ev.Device.PortName)
//	    case serialwatch.Disconnected:
//	        fmt.Println("disconnected", ev.Device.PortName)
//	    case serialwatch.Error:
//	        fmt.Println("error", ev.Err)
//	    }
//	}
//
// Devices already attached when Start is called are recorded without
// emitting events; read them with KnownDevices. A Disconnected event carries
// the descriptor recorded when the device connected. Each subscriber has its
// own unbounded queue, so a slow reader never holds up the monitor or other
// subscribers.
//
// # Notification Sources
//
// SysfsRegistry listens for kernel uevents by default. WithSource selects
// udev uevents (delivered after udev has applied permissions to the device
// node) or inotify on /dev for environments without netlink access.
// PortListRegistry polls the serial port enumerator instead.
//
// # Line Settings
//
// Config values print and parse in the familiar short form:
//
//	config, err := serialwatch.ParseConfig("115200 8E1 RTS/CTS")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = serialwatch.ApplyConfig("/dev/ttyUSB0", config)
//
// ApplyConfig only changes the line settings; every other terminal flag is
// left as the device had it.
//
// # Testing
//
// All registry access goes through the Registry interface. Tests supply their
// own Entry, Iterator and Watcher implementations to drive a Monitor without
// hardware.
//
// # Error Handling
//
//	var (
//	    ErrEnumerationFailed              // the registry query itself failed
//	    ErrPortNameExtractionFailed       // an entry has no device node path
//	    ErrPortPropertiesExtractionFailed // the device node could not be read
//	)
//
// Use errors.Is() for error type checking:
//
//	if errors.Is(err, serialwatch.ErrPortPropertiesExtractionFailed) {
//	    // permission problem or device vanished mid-scan
//	}
//
// # Default Configuration
//
//   - BaudRate: 9600
//   - DataBits: 8
//   - StopBits: 1
//   - Parity: None
//   - FlowControl: None
//   - Read/Write timeouts: none
package serialwatch
