package ipc

import (
	"github.com/alanbriolat/dlhelper"
)

type noSubscription struct{}

func (noSubscription) Unsubscribe() {}

// snapshotItem presents a Notice's ItemInfo as a dlhelper.Item for client-side callbacks. It never changes and
// never emits events.
type snapshotItem struct {
	info dlhelper.ItemInfo
}

var _ dlhelper.Item = snapshotItem{}

func (i snapshotItem) URL() string { return i.info.URL }
func (i snapshotItem) Filename() string { return i.info.Filename }
func (i snapshotItem) MimeType() string { return i.info.MimeType }
func (i snapshotItem) TotalBytes() int64 { return i.info.TotalBytes }
func (i snapshotItem) ReceivedBytes() int64 { return i.info.ReceivedBytes }
func (i snapshotItem) SavePath() string { return i.info.SavePath }
func (i snapshotItem) SetSavePath(_ string) {}
func (i snapshotItem) State() dlhelper.ItemState { return i.info.State }

func (i snapshotItem) OnUpdated(_ func()) dlhelper.Subscription {
	return noSubscription{}
}

func (i snapshotItem) OnDone(_ func(dlhelper.ItemState)) dlhelper.Subscription {
	return noSubscription{}
}
