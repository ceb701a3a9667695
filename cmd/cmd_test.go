package cmd

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/go-k720"
)

func TestParseHexString(t *testing.T) {
	tests := []struct {
		in      string
		want    []byte
		wantErr bool
	}{
		{"3b31", []byte{0x3b, 0x31}, false},
		{"3B 31", []byte{0x3b, 0x31}, false},
		{"0x3b 0X31", []byte{0x3b, 0x31}, false},
		{"FFFFFFFFFFFF", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, false},
		{"3b3", nil, true},
		{"zz", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseHexString(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKeyType(t *testing.T) {
	kt, err := parseKeyType("A")
	require.NoError(t, err)
	assert.Equal(t, k720.KeyA, kt)

	kt, err = parseKeyType("b")
	require.NoError(t, err)
	assert.Equal(t, k720.KeyB, kt)

	_, err = parseKeyType("c")
	assert.ErrorIs(t, err, k720.ErrInvalidKey)
}

func TestLookupCardType(t *testing.T) {
	for _, name := range []string{"s50", "S70", "ul"} {
		ops, err := lookupCardType(name)
		require.NoError(t, err, name)
		assert.NotNil(t, ops.detect)
		assert.NotNil(t, ops.id)
	}
	_, err := lookupCardType("desfire")
	assert.Error(t, err)
}

func TestReadCommand(t *testing.T) {
	got, err := readCommand([]string{"FC7"}, os.Stdin)
	require.NoError(t, err)
	assert.Equal(t, "FC7", got)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	_, err = w.WriteString("DC\r\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	got, err = readCommand(nil, r)
	require.NoError(t, err)
	assert.Equal(t, "DC", got)
}

func TestFilterPorts(t *testing.T) {
	ports := []string{"/dev/ttyUSB0", "/dev/ttyACM1", "/dev/ttyS0", "/dev/ttyAMA0", "/dev/ttymxc2"}

	assert.Equal(t, ports, filterPorts(ports, ""))
	assert.Equal(t, ports, filterPorts(ports, "all"))
	assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyACM1"}, filterPorts(ports, "usb"))
	assert.Equal(t, []string{"/dev/ttyS0"}, filterPorts(ports, "Standard"))
	assert.Equal(t, []string{"/dev/ttyAMA0"}, filterPorts(ports, "arm"))
	assert.Empty(t, filterPorts(ports, "bluetooth"))
}

func TestMetricsServerRoutes(t *testing.T) {
	srv := newMetricsServer(":0", "/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
