package serial

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeSysfs lays out <root>/devices/<usbDev>/<usbDev>:1.0/<tty> with the
// class/tty/<tty>/device link the kernel creates for usb-serial adapters.
func fakeSysfs(t *testing.T, root, tty, usbDev string, attrs map[string]string) {
	t.Helper()

	dev := filepath.Join(root, "devices", usbDev)
	iface := filepath.Join(dev, usbDev+":1.0")
	node := filepath.Join(iface, tty)
	class := filepath.Join(root, "class", "tty", tty)

	for _, dir := range []string{node, class} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	for name, value := range attrs {
		if err := os.WriteFile(filepath.Join(dev, name), []byte(value+"\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(iface, "bInterfaceNumber"), []byte("00\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(node, filepath.Join(class, "device")); err != nil {
		t.Fatal(err)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name  string
		match bool
		class string
	}{
		{"ttyUSB0", true, ClassUSB},
		{"ttyACM12", true, ClassUSB},
		{"ttyS0", true, ClassStandard},
		{"ttySAC1", true, ClassOther},
		{"ttyAMA0", true, ClassARM},
		{"ttyTHS2", true, ClassOther},
		{"ttyUSB", false, ""},
		{"ttyS0a", false, ""},
		{"tty1", false, ""},
		{"console", false, ""},
		{"ptmx", false, ""},
		{"ptyp0", false, ""},
	}

	for _, tt := range tests {
		k, ok := kindOf(tt.name)
		if ok != tt.match {
			t.Errorf("kindOf(%s) matched = %v, expected %v", tt.name, ok, tt.match)
			continue
		}
		if ok && k.class != tt.class {
			t.Errorf("kindOf(%s) class = %s, expected %s", tt.name, k.class, tt.class)
		}
	}
}

func TestPortClass(t *testing.T) {
	if got := PortClass("/dev/ttyUSB3"); got != ClassUSB {
		t.Errorf("Expected %s, got %s", ClassUSB, got)
	}
	if got := PortClass("/dev/null"); got != ClassOther {
		t.Errorf("Expected %s, got %s", ClassOther, got)
	}
}

func TestListPortsIn(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ttyUSB0", "ttyS1", "tty1"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	// regular files are not character devices
	ports, err := listPortsIn(dir)
	if err != nil {
		t.Fatalf("listPortsIn failed: %v", err)
	}
	if len(ports) != 0 {
		t.Errorf("Expected no ports, got %v", ports)
	}

	if _, err := listPortsIn(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestListPorts(t *testing.T) {
	ports, err := ListPorts()
	if err != nil {
		t.Fatalf("ListPorts failed: %v", err)
	}
	for i, port := range ports {
		if !strings.HasPrefix(port, "/dev/") || !isCharacterDevice(port) {
			t.Errorf("Unexpected port %s", port)
		}
		if i > 0 && ports[i-1] > port {
			t.Errorf("Ports not sorted: %s before %s", ports[i-1], port)
		}
	}
}

func TestGetPortInfo(t *testing.T) {
	info, err := GetPortInfo("/dev/null")
	if err != nil {
		t.Fatalf("GetPortInfo(/dev/null) failed: %v", err)
	}
	if info.Name != "null" || info.Class != ClassOther || info.IsUSB() {
		t.Errorf("Unexpected info for /dev/null: %+v", info)
	}

	_, err = GetPortInfo("/dev/k720-missing")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}
}

func TestDescribeUSBPort(t *testing.T) {
	root := t.TempDir()
	fakeSysfs(t, root, "ttyUSB0", "1-1.4", map[string]string{
		"idVendor":     "1a86",
		"idProduct":    "7523",
		"serial":       "K720-0042",
		"manufacturer": "QinHeng Electronics",
		"product":      "USB Serial",
		"busnum":       "1",
		"devnum":       "5",
	})

	info := describePort(root, "/dev/ttyUSB0")
	if !info.IsUSB() {
		t.Fatal("Expected USB descriptors")
	}

	fields := map[string][2]string{
		"VendorID":        {info.VendorID, "1a86"},
		"ProductID":       {info.ProductID, "7523"},
		"SerialNumber":    {info.SerialNumber, "K720-0042"},
		"Manufacturer":    {info.Manufacturer, "QinHeng Electronics"},
		"Product":         {info.Product, "USB Serial"},
		"InterfaceNumber": {info.InterfaceNumber, "00"},
		"BusNumber":       {info.BusNumber, "1"},
		"DeviceNumber":    {info.DeviceNumber, "5"},
		"Description":     {info.Description, "USB Serial Port"},
	}
	for name, f := range fields {
		if f[0] != f[1] {
			t.Errorf("%s = %q, expected %q", name, f[0], f[1])
		}
	}
}

func TestDescribePortWithoutSysfs(t *testing.T) {
	info := describePort(t.TempDir(), "/dev/ttyUSB9")
	if info.IsUSB() || info.SerialNumber != "" {
		t.Errorf("Expected no USB descriptors, got %+v", info)
	}
	if info.Class != ClassUSB {
		t.Errorf("Expected class %s, got %s", ClassUSB, info.Class)
	}
}

func TestFindBySerial(t *testing.T) {
	root := t.TempDir()
	fakeSysfs(t, root, "ttyUSB0", "1-1.2", map[string]string{"idVendor": "0403", "idProduct": "6001", "serial": "A50285BI"})
	fakeSysfs(t, root, "ttyUSB1", "1-1.3", map[string]string{"idVendor": "1a86", "idProduct": "7523", "serial": "K720-0042"})
	ports := []string{"/dev/ttyS0", "/dev/ttyUSB0", "/dev/ttyUSB1"}

	info, err := findBySerial(root, ports, "K720-0042")
	if err != nil {
		t.Fatalf("findBySerial failed: %v", err)
	}
	if info.Path != "/dev/ttyUSB1" {
		t.Errorf("Expected /dev/ttyUSB1, got %s", info.Path)
	}

	if _, err := findBySerial(root, ports, "nope"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}
	if _, err := findBySerial(root, ports, ""); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestSysfsAttr(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "serial"), []byte("  A50285BI \n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := sysfsAttr(dir, "serial"); got != "A50285BI" {
		t.Errorf("Expected trimmed value, got %q", got)
	}
	if got := sysfsAttr(dir, "missing"); got != "" {
		t.Errorf("Expected empty value, got %q", got)
	}
}
