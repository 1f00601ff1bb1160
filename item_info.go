package dlhelper

// ItemInfo is a point-in-time copy of an Item, for passing outside the host's event loop.
type ItemInfo struct {
	URL           string    `json:"url"`
	Filename      string    `json:"filename"`
	MimeType      string    `json:"mime_type"`
	SavePath      string    `json:"save_path"`
	TotalBytes    int64     `json:"total_bytes"`
	ReceivedBytes int64     `json:"received_bytes"`
	State         ItemState `json:"state"`
}

func NewItemInfo(item Item) ItemInfo {
	if item == nil {
		return ItemInfo{}
	}
	return ItemInfo{
		URL:           item.URL(),
		Filename:      item.Filename(),
		MimeType:      item.MimeType(),
		SavePath:      item.SavePath(),
		TotalBytes:    item.TotalBytes(),
		ReceivedBytes: item.ReceivedBytes(),
		State:         item.State(),
	}
}
