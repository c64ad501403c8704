package simplefs

type constErr string

func (err constErr) Error() string { return string(err) }

const (
	ErrMounted      constErr = "file system is mounted"
	ErrNotMounted   constErr = "file system is not mounted"
	ErrBadMagic     constErr = "no valid file system on disk"
	ErrDiskTooSmall constErr = "disk too small for a file system"
	ErrCorrupt      constErr = "file system metadata is corrupt"

	ErrNoInodes     constErr = "out of inodes"
	ErrInvalidInum  constErr = "inode number out of range"
	ErrInvalidInode constErr = "inode is not in use"

	// Returned alongside a short count from Write.
	ErrNoSpace    constErr = "out of free blocks"
	ErrFileTooBig constErr = "write past maximum file size"
)
