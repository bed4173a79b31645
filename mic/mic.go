// Package mic models the "microphone access granted" capability the recorder
// checks before capturing.
package mic

type Permissions interface {
	Granted() bool
	Request() (bool, error)
}

type systemPermissions struct{}

// System returns the host permission state. Desktop capture backends have no
// portable runtime-grant API; the OS prompts out of band on first device
// open, so the capability reads as granted here.
func System() Permissions {
	return systemPermissions{}
}

func (systemPermissions) Granted() bool          { return true }
func (systemPermissions) Request() (bool, error) { return true, nil }

// Fake is a test permission source with a settable grant decision.
type Fake struct {
	Grant     bool
	Requested int
}

func (f *Fake) Granted() bool { return f.Grant }

func (f *Fake) Request() (bool, error) {
	f.Requested++
	return f.Grant, nil
}
