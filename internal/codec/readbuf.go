package codec

import (
	"fmt"
	"sync"
	"time"

	"github.com/doismellburning/dsp/internal/dspcore"
)

// readCmdKind enumerates the read-buffer worker's command protocol,
// named and ordered exactly as in the original codec_buf command set.
type readCmdKind int

const (
	rcSync readCmdKind = iota + 1
	rcSeek
	rcPause
	rcUnpause
	rcSkip
	rcTerm
)

type readCmd struct {
	kind   readCmdKind
	offset int64
	reply  chan readReply
}

type readReply struct {
	pos int64
	err error
}

type readBlock struct {
	data   []dspcore.Sample
	codec  *Codec
	offset int
	frames int
}

// ReadBuf wraps a codec list with a producer worker goroutine that
// read-aheads into a bounded block queue, decoupling the chain
// execution thread from codec I/O jitter. It implements the same
// Read/Seek surface as a plain Codec.
type ReadBuf struct {
	mu          sync.Mutex
	wake        chan struct{}
	codecs      *List
	cur         *Codec
	blocks      []readBlock
	front       int
	count       int
	cap         int
	cmds        chan readCmd
	next        bool // "at end of current input", caller should switch
	suspended   bool
	paused      bool
	rtWait      bool
	blockFrames int
	done        chan struct{}
}

// NewReadBuf starts the worker thread for codecs, with nBlocks slots in
// the block queue (buffering is skipped entirely — Wrap below returns
// the bare codec — when nBlocks < 2 or the head codec declares NoBuf).
func NewReadBuf(codecs *List, blockFrames, nBlocks int) *ReadBuf {
	rb := &ReadBuf{
		codecs:      codecs,
		cur:         codecs.Head,
		blocks:      make([]readBlock, nBlocks),
		cap:         nBlocks,
		cmds:        make(chan readCmd, 8),
		wake:        make(chan struct{}, 1),
		blockFrames: blockFrames,
		done:        make(chan struct{}),
	}
	go rb.worker()
	return rb
}

// Wrap returns a ReadBuf-backed Codec with the same descriptive fields
// as the list's head, or the bare head codec unmodified if buffering
// should be skipped (NoBuf hint, or nBlocks < 2).
func Wrap(codecs *List, blockFrames, nBlocks int) *Codec {
	head := codecs.Head
	if head == nil || head.HasHint(NoBuf) || nBlocks < 2 {
		return head
	}
	rb := NewReadBuf(codecs, blockFrames, nBlocks)
	return &Codec{
		Path: head.Path, Type: head.Type, Enc: head.Enc,
		FS: head.FS, Channels: head.Channels, Prec: head.Prec,
		Hints: head.Hints, Frames: head.Frames,
		Read: rb.Read,
		Seek: rb.Seek,
		Delay: func() int64 { return head.Delay() },
		Data:  rb,
		Destroy: func() { rb.Terminate() },
	}
}

// worker is the single producer loop. It holds a "pending" permit that
// is the sum of queued commands and available production slots: when
// neither is available it blocks on rb.wake, which every state change
// that might unblock it (a command arriving, a slot freed, unpause)
// posts to.
func (rb *ReadBuf) worker() {
	for {
		select {
		case cmd := <-rb.cmds:
			if rb.handle(cmd) {
				close(rb.done)
				return
			}
			continue
		default:
		}

		rb.mu.Lock()
		canProduce := !rb.suspended && !rb.paused && !rb.rtWait && rb.count < rb.cap && rb.cur != nil
		rb.mu.Unlock()
		if !canProduce {
			select {
			case cmd := <-rb.cmds:
				if rb.handle(cmd) {
					close(rb.done)
					return
				}
			case <-rb.wake:
			}
			continue
		}

		rb.mu.Lock()
		cur := rb.cur
		rb.mu.Unlock()

		buf := make([]dspcore.Sample, rb.blockFrames*cur.Channels)
		n, err := cur.Read(buf, rb.blockFrames)
		if err != nil {
			n = 0
		}

		rb.mu.Lock()
		slot := (rb.front + rb.count) % rb.cap
		rb.blocks[slot] = readBlock{data: buf, codec: cur, frames: n}
		rb.count++
		if n == 0 {
			if rb.cur.Next != nil && rb.cur.Next.HasHint(Realtime) {
				rb.rtWait = true
			}
			rb.cur = rb.cur.Next
		}
		rb.mu.Unlock()
	}
}

// notifyWake posts to the wake channel without blocking if the worker
// isn't currently waiting on it.
func (rb *ReadBuf) notifyWake() {
	select {
	case rb.wake <- struct{}{}:
	default:
	}
}

func (rb *ReadBuf) handle(cmd readCmd) (term bool) {
	switch cmd.kind {
	case rcSync:
		cmd.reply <- readReply{}
	case rcPause:
		rb.mu.Lock()
		rb.paused = true
		if rb.cur != nil && rb.cur.Pause != nil {
			rb.cur.Pause(true)
		}
		rb.mu.Unlock()
	case rcUnpause:
		rb.mu.Lock()
		rb.paused = false
		if rb.cur != nil && rb.cur.Pause != nil {
			rb.cur.Pause(false)
		}
		rb.notifyWake()
		rb.mu.Unlock()
	case rcSkip:
		rb.mu.Lock()
		rb.front = (rb.front + rb.count) % rb.cap
		rb.count = 0
		if rb.cur != nil {
			rb.cur = rb.cur.Next
		}
		rb.rtWait = false
		rb.notifyWake()
		rb.mu.Unlock()
		cmd.reply <- readReply{}
	case rcSeek:
		pos, err := rb.doSeek(cmd.offset)
		cmd.reply <- readReply{pos: pos, err: err}
	case rcTerm:
		return true
	}
	return false
}

// doSeek discards every queued block and passes the seek straight to
// the codec currently being produced from, failing if that codec has no
// Seek or is a realtime codec asked for a nonzero offset. Queued blocks
// are not used to satisfy the seek, and the seek never moves to another
// codec in the list.
func (rb *ReadBuf) doSeek(offset int64) (int64, error) {
	rb.mu.Lock()
	rb.front = 0
	rb.count = 0
	rb.mu.Unlock()

	if rb.cur == nil || rb.cur.Seek == nil {
		return 0, fmt.Errorf("readbuf: seek unsupported")
	}
	if rb.cur.HasHint(Realtime) && offset > 0 {
		return 0, fmt.Errorf("readbuf: seek unsupported on realtime codec")
	}
	return rb.cur.Seek(offset)
}

func (rb *ReadBuf) sendCmd(c readCmd) {
	rb.cmds <- c
	rb.mu.Lock()
	rb.notifyWake()
	rb.mu.Unlock()
}

// Sync blocks until the worker has drained its command queue to this
// point.
func (rb *ReadBuf) Sync() {
	reply := make(chan readReply, 1)
	rb.sendCmd(readCmd{kind: rcSync, reply: reply})
	<-reply
}

func (rb *ReadBuf) Pause() {
	rb.sendCmd(readCmd{kind: rcPause})
}

func (rb *ReadBuf) Unpause() {
	rb.sendCmd(readCmd{kind: rcUnpause})
}

// Skip advances to the next codec in the list, dropping queued blocks
// belonging to the current one.
func (rb *ReadBuf) Skip() {
	reply := make(chan readReply, 1)
	rb.sendCmd(readCmd{kind: rcSkip, reply: reply})
	<-reply
}

func (rb *ReadBuf) Seek(offset int64) (int64, error) {
	reply := make(chan readReply, 1)
	rb.sendCmd(readCmd{kind: rcSeek, offset: offset, reply: reply})
	r := <-reply
	return r.pos, r.err
}

func (rb *ReadBuf) Terminate() {
	rb.cmds <- readCmd{kind: rcTerm}
	rb.mu.Lock()
	rb.notifyWake()
	rb.mu.Unlock()
	<-rb.done
}

// Read pulls frames frames from the front of the block queue into buf,
// partially satisfying the request across block boundaries. Returns a
// short count with Next()==true when the caller should switch to a
// different codec (the block it hit belongs to a different codec than
// expected).
func (rb *ReadBuf) Read(buf []dspcore.Sample, frames int) (int, error) {
	got := 0
	rb.mu.Lock()
	defer rb.mu.Unlock()
	// An empty queue is not end of input: wait for the worker unless the
	// whole list has been read.
	for rb.count == 0 && rb.cur != nil {
		if rb.rtWait {
			// The queue is fully drained: release a worker held back
			// before a realtime codec.
			rb.rtWait = false
			rb.notifyWake()
		}
		rb.mu.Unlock()
		time.Sleep(time.Millisecond)
		rb.mu.Lock()
	}
	for got < frames && rb.count > 0 {
		blk := &rb.blocks[rb.front]
		avail := blk.frames - blk.offset
		if avail <= 0 {
			rb.front = (rb.front + 1) % rb.cap
			rb.count--
			rb.next = true
			rb.notifyWake()
			break
		}
		n := frames - got
		if n > avail {
			n = avail
		}
		channels := len(blk.data) / blk.frames
		copy(buf[got*channels:(got+n)*channels], blk.data[blk.offset*channels:(blk.offset+n)*channels])
		blk.offset += n
		got += n
		if blk.offset >= blk.frames {
			rb.front = (rb.front + 1) % rb.cap
			rb.count--
			rb.notifyWake()
		}
	}
	return got, nil
}

// Next reports whether the last Read ended on an end-of-codec boundary.
func (rb *ReadBuf) Next() bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	n := rb.next
	rb.next = false
	return n
}
