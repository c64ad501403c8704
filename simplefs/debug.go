package simplefs

import (
	"fmt"
	"io"

	"github.com/mit-pdos/go-simplefs/alloc"
	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/disk"
	"github.com/mit-pdos/go-simplefs/inode"
	"github.com/mit-pdos/go-simplefs/super"
)

// Debug prints the superblock and every valid inode to w. It reads straight
// from disk, so it also works on an unmounted file system.
func (fs *FileSys) Debug(w io.Writer) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	blk, err := fs.d.Read(super.SUPERBLK)
	if err != nil {
		return fmt.Errorf("debug: reading superblock: %w", err)
	}
	sb := super.Decode(blk)
	fmt.Fprintf(w, "superblock:\n")
	if !sb.Valid() {
		fmt.Fprintf(w, "    magic number is invalid!\n")
		return fmt.Errorf("debug: %w", ErrBadMagic)
	}
	fmt.Fprintf(w, "    magic number is valid\n")
	fmt.Fprintf(w, "    %d blocks\n", sb.NBlocks)
	fmt.Fprintf(w, "    %d inode blocks\n", sb.NInodeBlocks)
	fmt.Fprintf(w, "    %d inodes\n", sb.NInodes)
	fmt.Fprintf(w, "    uuid %s\n", sb.UUID)

	for blkno := sb.InodeStart(); blkno < sb.DataStart(); blkno++ {
		refs, err := inode.LoadBlock(fs.d, sb, blkno)
		if err != nil {
			return fmt.Errorf("debug: %w", err)
		}
		for _, r := range refs {
			if r.Valid {
				if err := debugInode(w, fs.d, sb, r.Inode); err != nil {
					return fmt.Errorf("debug: %w", err)
				}
			}
		}
	}
	return nil
}

func debugInode(w io.Writer, d disk.Disk, sb *super.FsSuper, ip *inode.Inode) error {
	fmt.Fprintf(w, "inode %d:\n", ip.Inum)
	fmt.Fprintf(w, "    size: %d bytes\n", ip.Size)
	fmt.Fprintf(w, "    direct blocks:")
	for _, bn := range ip.Direct {
		if bn != common.NULLBNUM {
			fmt.Fprintf(w, " %d", bn)
		}
	}
	fmt.Fprintf(w, "\n")
	if ip.Indirect == common.NULLBNUM {
		return nil
	}
	fmt.Fprintf(w, "    indirect block: %d\n", ip.Indirect)
	m := mkBmap(d, sb, nil, ip)
	fmt.Fprintf(w, "    indirect data blocks:")
	for fbn := common.NDIRECT; fbn < common.MAXFILEBLOCKS; fbn++ {
		bn, err := m.lookup(fbn)
		if err != nil {
			return err
		}
		if bn != common.NULLBNUM {
			fmt.Fprintf(w, " %d", bn)
		}
	}
	fmt.Fprintf(w, "\n")
	return nil
}

// Check rebuilds the free bitmap from the inodes and compares it with the
// live one. It reports blocks owned by two inodes, and blocks whose bitmap
// bit disagrees with whether an inode owns them.
func (fs *FileSys) Check() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if !fs.mounted {
		return ErrNotMounted
	}
	owner := make(map[common.Bnum]common.Inum)
	seen := mkBitmap(fs.super)
	err := scan(fs.d, fs.super, func(ip *inode.Inode, bn common.Bnum) error {
		if seen.IsUsed(bn) {
			return fmt.Errorf("check: block %d owned by inodes %d and %d: %w",
				bn, owner[bn], ip.Inum, ErrCorrupt)
		}
		seen.MarkUsed(bn)
		owner[bn] = ip.Inum
		return nil
	})
	if err != nil {
		return err
	}
	return compareBitmaps(seen, fs.alloc)
}

func compareBitmaps(want *alloc.Alloc, got *alloc.Alloc) error {
	for bn := uint64(0); bn < want.Max(); bn++ {
		if want.IsUsed(bn) != got.IsUsed(bn) {
			return fmt.Errorf("check: block %d in use %v but bitmap says %v: %w",
				bn, want.IsUsed(bn), got.IsUsed(bn), ErrCorrupt)
		}
	}
	return nil
}
