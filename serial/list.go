package serial

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// sysfsRoot is where USB metadata is read from
var sysfsRoot = "/sys"

// Port classes, as accepted by `k720 list --filter`
const (
	ClassUSB      = "usb"
	ClassStandard = "standard"
	ClassARM      = "arm"
	ClassOther    = "other"
)

// portKind is a family of tty names: prefix followed by a unit number
type portKind struct {
	prefix      string
	class       string
	description string
}

var portKinds = []portKind{
	{"ttyUSB", ClassUSB, "USB Serial Port"},
	{"ttyACM", ClassUSB, "USB CDC/ACM Device"},
	{"ttyS", ClassStandard, "Standard Serial Port"},
	{"ttyAMA", ClassARM, "ARM Serial Port"},
	{"ttymxc", ClassOther, "i.MX Serial Port"},
	{"ttyO", ClassOther, "OMAP Serial Port"},
	{"ttySAC", ClassOther, "Samsung Serial Port"},
	{"ttyTHS", ClassOther, "Tegra Serial Port"},
}

// kindOf matches name against portKinds. Virtual terminals (tty1),
// pseudo-terminals and anything else without a known prefix do not match.
func kindOf(name string) (portKind, bool) {
	for _, k := range portKinds {
		unit, ok := strings.CutPrefix(name, k.prefix)
		if ok && unit != "" && strings.Trim(unit, "0123456789") == "" {
			return k, true
		}
	}
	return portKind{}, false
}

// PortInfo describes a serial port and, for USB adapters, the device behind it
type PortInfo struct {
	Name            string
	Path            string
	Class           string
	Description     string
	VendorID        string
	ProductID       string
	SerialNumber    string
	Manufacturer    string
	Product         string
	InterfaceNumber string
	BusNumber       string
	DeviceNumber    string
}

// IsUSB reports whether USB metadata was found for the port
func (p PortInfo) IsUSB() bool {
	return p.VendorID != "" && p.ProductID != ""
}

// PortClass returns the class of a device path or bare tty name
func PortClass(port string) string {
	if k, ok := kindOf(filepath.Base(port)); ok {
		return k.class
	}
	return ClassOther
}

// ListPorts returns the serial character devices under /dev, sorted
func ListPorts() ([]string, error) {
	return listPortsIn("/dev")
}

func listPortsIn(devDir string) ([]string, error) {
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil, err
	}

	var ports []string
	for _, entry := range entries {
		if _, ok := kindOf(entry.Name()); !ok {
			continue
		}
		path := filepath.Join(devDir, entry.Name())
		if isCharacterDevice(path) {
			ports = append(ports, path)
		}
	}

	sort.Strings(ports)
	return ports, nil
}

func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// GetPortInfo describes portPath, reading USB descriptors from sysfs for
// USB adapters.
func GetPortInfo(portPath string) (*PortInfo, error) {
	if !isCharacterDevice(portPath) {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, portPath)
	}
	return describePort(sysfsRoot, portPath), nil
}

func describePort(root, portPath string) *PortInfo {
	name := filepath.Base(portPath)
	info := &PortInfo{
		Name:        name,
		Path:        portPath,
		Class:       ClassOther,
		Description: "Serial Port",
	}
	if k, ok := kindOf(name); ok {
		info.Class = k.class
		info.Description = k.description
	}
	if info.Class == ClassUSB {
		readUSBDescriptors(root, info)
	}
	return info
}

// FindBySerialNumber returns the port whose USB adapter reports serial.
// Dispensers are usually wired through a USB adapter whose ttyUSB index
// changes between boots.
func FindBySerialNumber(serial string) (*PortInfo, error) {
	ports, err := ListPorts()
	if err != nil {
		return nil, err
	}
	return findBySerial(sysfsRoot, ports, serial)
}

func findBySerial(root string, ports []string, serial string) (*PortInfo, error) {
	if serial == "" {
		return nil, fmt.Errorf("%w: empty adapter serial", ErrInvalidConfig)
	}
	for _, path := range ports {
		if info := describePort(root, path); info.SerialNumber == serial {
			return info, nil
		}
	}
	return nil, fmt.Errorf("%w: no adapter with serial %q", ErrDeviceNotFound, serial)
}

// readUSBDescriptors follows <root>/class/tty/<name>/device to the USB
// interface; the interface's parent is the USB device.
func readUSBDescriptors(root string, info *PortInfo) {
	iface, err := filepath.EvalSymlinks(filepath.Join(root, "class", "tty", info.Name, "device"))
	if err != nil {
		return
	}
	// the link may point at the interface or at the tty node inside it
	if !strings.Contains(filepath.Base(iface), ":") {
		iface = filepath.Dir(iface)
	}
	info.InterfaceNumber = sysfsAttr(iface, "bInterfaceNumber")

	dev := filepath.Dir(iface)
	for attr, field := range map[string]*string{
		"idVendor":     &info.VendorID,
		"idProduct":    &info.ProductID,
		"serial":       &info.SerialNumber,
		"manufacturer": &info.Manufacturer,
		"product":      &info.Product,
		"busnum":       &info.BusNumber,
		"devnum":       &info.DeviceNumber,
	} {
		*field = sysfsAttr(dev, attr)
	}
}

// sysfsAttr returns the trimmed attribute value, or "" if unreadable
func sysfsAttr(dir, attr string) string {
	data, err := os.ReadFile(filepath.Join(dir, attr))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
