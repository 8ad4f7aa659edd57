package slots

import (
	"fmt"
	"net/netip"
	"sync"

	"go.uber.org/multierr"
)

// DefaultCapacity 默认槽位容量
const DefaultCapacity = 1

// ============================================================================
//                              类型
// ============================================================================

// Occupant 槽位占用者（一个连接）
type Occupant interface {
	// ID 连接唯一标识，用于判断是否为同一连接
	ID() string

	// Close 关闭连接，必须幂等
	Close() error

	// IsClosed 连接是否已关闭（被驱逐或出错）
	IsClosed() bool
}

// NotifyFunc 在新占用者上发送地址通知
type NotifyFunc func(ip netip.Addr) error

// ClaimResult 认领结果
type ClaimResult struct {
	// Notified 是否发送了地址通知
	Notified bool

	// PreviousIP 认领前记录的 IP（新建槽位时无效）
	PreviousIP netip.Addr

	// Evicted 被驱逐的旧占用者
	Evicted Occupant
}

// Entry 槽位快照
type Entry struct {
	Slot       uint32
	OccupantID string
	IP         netip.Addr
}

type entry struct {
	occupant Occupant
	ip       netip.Addr
}

// ============================================================================
//                              Table
// ============================================================================

// Table 槽位表，可并发使用
type Table struct {
	mu       sync.Mutex
	capacity uint32
	slots    map[uint32]*entry
	closed   bool
}

// NewTable 创建槽位表
//
// capacity 为 0 时使用 DefaultCapacity。
func NewTable(capacity uint32) *Table {
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	return &Table{
		capacity: capacity,
		slots:    make(map[uint32]*entry),
	}
}

// Capacity 返回槽位容量
func (t *Table) Capacity() uint32 {
	return t.capacity
}

// Claim 以 ip 的身份将 occupant 绑定到 slot
//
// notify 在持有表锁期间、驱逐旧占用者之前调用，只在 IP 变化（或槽位首次
// 被认领）时调用一次。notify 失败时关闭 occupant，槽位保持不变。
// slot 超出容量时返回 ErrSlotOutOfRange，调用方负责关闭连接。
// 已关闭的 occupant（例如已被驱逐的旧连接仍在读取缓冲帧）不能再认领，
// 返回 ErrOccupantClosed，槽位与当前占用者保持不变。
func (t *Table) Claim(slot uint32, occupant Occupant, ip netip.Addr, notify NotifyFunc) (ClaimResult, error) {
	if slot >= t.capacity {
		return ClaimResult{}, fmt.Errorf("%w: %d >= %d", ErrSlotOutOfRange, slot, t.capacity)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ClaimResult{}, ErrTableClosed
	}
	if occupant.IsClosed() {
		return ClaimResult{}, ErrOccupantClosed
	}

	var res ClaimResult
	e, exists := t.slots[slot]
	if exists {
		res.PreviousIP = e.ip
	}

	if !exists || e.ip != ip {
		if notify != nil {
			if err := notify(ip); err != nil {
				_ = occupant.Close()
				return ClaimResult{}, fmt.Errorf("%w: %w", ErrNotifyFailed, err)
			}
		}
		res.Notified = true
	}

	if exists && e.occupant != nil && e.occupant.ID() != occupant.ID() {
		_ = e.occupant.Close()
		res.Evicted = e.occupant
	}

	t.slots[slot] = &entry{occupant: occupant, ip: ip}
	return res, nil
}

// Lookup 返回槽位快照
func (t *Table) Lookup(slot uint32) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.slots[slot]
	if !ok {
		return Entry{}, false
	}
	return Entry{Slot: slot, OccupantID: e.occupant.ID(), IP: e.ip}, true
}

// Len 返回已创建的槽位数
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}

// Close 关闭所有占用者，之后的认领返回 ErrTableClosed
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	var err error
	for _, e := range t.slots {
		err = multierr.Append(err, e.occupant.Close())
	}
	return err
}
