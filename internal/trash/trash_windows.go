//go:build windows

package trash

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	foDelete          = 0x0003
	fofSilent         = 0x0004
	fofNoConfirmation = 0x0010
	fofAllowUndo      = 0x0040
	fofNoErrorUI      = 0x0400
)

// shFileOpStruct mirrors SHFILEOPSTRUCTW.
type shFileOpStruct struct {
	Hwnd                 uintptr
	Func                 uint32
	From                 *uint16
	To                   *uint16
	Flags                uint16
	AnyOperationsAborted int32
	NameMappings         uintptr
	ProgressTitle        *uint16
}

var (
	shell32             = windows.NewLazySystemDLL("shell32.dll")
	procSHFileOperation = shell32.NewProc("SHFileOperationW")
)

func move(path string) error {
	from, err := windows.UTF16FromString(path)
	if err != nil {
		return err
	}
	// pFrom is a double-NUL terminated list.
	from = append(from, 0)

	op := shFileOpStruct{
		Func:  foDelete,
		From:  &from[0],
		Flags: fofAllowUndo | fofNoConfirmation | fofSilent | fofNoErrorUI,
	}
	if err := procSHFileOperation.Find(); err != nil {
		return err
	}
	ret, _, _ := procSHFileOperation.Call(uintptr(unsafe.Pointer(&op)))
	if ret != 0 {
		return fmt.Errorf("SHFileOperationW failed with code 0x%x", ret)
	}
	if op.AnyOperationsAborted != 0 {
		return fmt.Errorf("recycle operation aborted")
	}
	return nil
}
