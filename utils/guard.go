package utils

// Guard runs a cleanup on early return unless Success was called first. It is for constructors
// that allocate a resource before later steps that can fail:
//
//	guard := NewGuard(func() { f.Close() })
//	defer guard.OnFail()
//	if err != nil { return err }
//	guard.Success()
type Guard struct {
	OnFail  func()
	success bool
}

// NewGuard returns a Guard running onFailCleanup from OnFail unless Success was called.
func NewGuard(onFailCleanup func()) *Guard {
	ret := &Guard{}
	ret.OnFail = func() {
		if !ret.success {
			onFailCleanup()
		}
	}
	return ret
}

// Success disarms the cleanup.
func (guard *Guard) Success() {
	guard.success = true
}
