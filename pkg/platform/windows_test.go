package platform_test

import (
	"context"
	"os/user"
	"testing"

	"github.com/mdmtools/mdmkit/pkg/platform"
	"github.com/mdmtools/mdmkit/pkg/platform/platformtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowsCommandSupport_ValidateUser(t *testing.T) {
	cs := platform.WindowsCommandSupport{}

	tests := []struct {
		name     string
		username string
		uid      int
		valid    bool
	}{
		{"regular user", "testuser", 0, true},
		{"space in name", "test user", 0, true},
		{"dotted name", "first.last", 0, true},
		{"backslash", `DOMAIN\user`, 0, false},
		{"missing username", "", 0, false},
		{"missing uid", "testuser", platform.NoUID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, cs.ValidateUser(tt.username, tt.uid))
		})
	}
	assert.Equal(t, 0, cs.MinUserUID())
}

func TestWindowsCommandSupport_RunAsUserCommand(t *testing.T) {
	cs := platform.WindowsCommandSupport{}

	t.Run("with arguments", func(t *testing.T) {
		got := cs.RunAsUserCommand([]string{"notepad.exe", "C:\\file.txt"}, "testuser", 0)
		require.Len(t, got, 4)
		assert.Equal(t, []string{"powershell", "-NoProfile", "-Command"}, got[:3])
		assert.Equal(t,
			"Start-Process -FilePath 'notepad.exe' -ArgumentList 'C:\\file.txt' "+
				"-Credential (Get-Credential -UserName 'testuser' -Message 'Enter password') -Wait -NoNewWindow",
			got[3])
	})

	t.Run("without arguments", func(t *testing.T) {
		got := cs.RunAsUserCommand([]string{"whoami"}, "testuser", 0)
		require.Len(t, got, 4)
		assert.NotContains(t, got[3], "-ArgumentList")
		assert.Contains(t, got[3], "-FilePath 'whoami'")
	})

	t.Run("quotes are escaped", func(t *testing.T) {
		got := cs.RunAsUserCommand([]string{"echo", "it's"}, "o'brien", 0)
		require.Len(t, got, 4)
		assert.Contains(t, got[3], "-ArgumentList 'it''s'")
		assert.Contains(t, got[3], "-UserName 'o''brien'")
	})

	t.Run("empty command", func(t *testing.T) {
		assert.Nil(t, cs.RunAsUserCommand(nil, "testuser", 0))
	})
}

func TestWindowsDialogSupport(t *testing.T) {
	ds := platform.WindowsDialogSupport{}

	_, ok := ds.StandardBinaryPath()
	assert.False(t, ok)
	assert.False(t, ds.DialogAvailable())
	assert.Equal(t, `C:\ProgramData`, ds.SharedTempDir())
	assert.Contains(t, ds.UnavailableMessage(), "not available on Windows")
}

func TestWindowsSystemInfo_SerialNumber(t *testing.T) {
	ps := []string{"powershell", "-NoProfile", "-Command", "(Get-CimInstance -ClassName Win32_BIOS).SerialNumber"}
	wmic := []string{"wmic", "bios", "get", "serialnumber"}

	t.Run("powershell", func(t *testing.T) {
		host := platformtest.NewHost()
		host.On(ps, platformtest.Response{Stdout: "ABC123\r\n"})

		serial, ok := platform.NewWindowsSystemInfo(host).SerialNumber(context.Background())
		assert.True(t, ok)
		assert.Equal(t, "ABC123", serial)
		assert.Equal(t, 1, host.Spawns())
	})

	t.Run("wmic fallback", func(t *testing.T) {
		host := platformtest.NewHost()
		host.On(ps, platformtest.Response{ExitCode: 1})
		host.On(wmic, platformtest.Response{Stdout: "SerialNumber  \r\nXYZ789  \r\n\r\n"})

		serial, ok := platform.NewWindowsSystemInfo(host).SerialNumber(context.Background())
		assert.True(t, ok)
		assert.Equal(t, "XYZ789", serial)
	})

	t.Run("placeholder", func(t *testing.T) {
		host := platformtest.NewHost()
		host.On(ps, platformtest.Response{Stdout: "To Be Filled By O.E.M."})
		host.On(wmic, platformtest.Response{Stdout: "SerialNumber\nTo Be Filled By O.E.M."})

		_, ok := platform.NewWindowsSystemInfo(host).SerialNumber(context.Background())
		assert.False(t, ok)
	})
}

func TestWindowsSystemInfo_ConsoleUser(t *testing.T) {
	t.Run("from environment", func(t *testing.T) {
		host := platformtest.NewHost()
		host.Env["USERNAME"] = "testuser"
		host.Home = `C:\Users\testuser`
		host.Dirs[host.Home] = true

		u, ok := platform.NewWindowsSystemInfo(host).ConsoleUser(context.Background())
		require.True(t, ok)
		assert.Equal(t, &platform.ConsoleUser{Username: "testuser", UID: 0, Home: `C:\Users\testuser`}, u)
	})

	t.Run("domain prefix stripped", func(t *testing.T) {
		host := platformtest.NewHost()
		host.Current = &user.User{Username: `CORP\testuser`}
		host.Home = `C:\Users\testuser`
		host.Dirs[host.Home] = true

		u, ok := platform.NewWindowsSystemInfo(host).ConsoleUser(context.Background())
		require.True(t, ok)
		assert.Equal(t, "testuser", u.Username)
	})

	t.Run("system account", func(t *testing.T) {
		host := platformtest.NewHost()
		host.Env["USERNAME"] = "SYSTEM"
		host.Home = `C:\Windows\system32`
		host.Dirs[host.Home] = true

		_, ok := platform.NewWindowsSystemInfo(host).ConsoleUser(context.Background())
		assert.False(t, ok)
	})
}

func TestWindowsSystemInfo_UserFullName(t *testing.T) {
	ps := []string{"powershell", "-NoProfile", "-Command", "(Get-LocalUser -Name 'testuser').FullName"}

	t.Run("powershell", func(t *testing.T) {
		host := platformtest.NewHost()
		host.On(ps, platformtest.Response{Stdout: "Test User"})

		name, ok := platform.NewWindowsSystemInfo(host).UserFullName(context.Background(), "testuser")
		assert.True(t, ok)
		assert.Equal(t, "Test User", name)
	})

	t.Run("net user fallback", func(t *testing.T) {
		host := platformtest.NewHost()
		host.On(ps, platformtest.Response{ExitCode: 1})
		host.On([]string{"net", "user", "testuser"}, platformtest.Response{
			Stdout: "User name                    testuser\r\nFull Name                    Test User\r\nComment\r\n",
		})

		name, ok := platform.NewWindowsSystemInfo(host).UserFullName(context.Background(), "testuser")
		assert.True(t, ok)
		assert.Equal(t, "Test User", name)
	})

	t.Run("unknown", func(t *testing.T) {
		host := platformtest.NewHost()
		host.Default = platformtest.Response{ExitCode: 2}

		_, ok := platform.NewWindowsSystemInfo(host).UserFullName(context.Background(), "ghost")
		assert.False(t, ok)
	})
}

func TestWindowsSystemInfo_OSVersionLabel(t *testing.T) {
	host := platformtest.NewHost()
	host.Release = "10.0.22631"

	assert.Equal(t, "Windows Version: 10.0.22631", platform.NewWindowsSystemInfo(host).OSVersionLabel())
}
