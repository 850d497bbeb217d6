package structure

// FlatFile is a single file's counters paired with its resolved folder path.
type FlatFile struct {
	FileName        string `json:"file_name"`
	FolderPath      string `json:"folder_path"`
	IdleDuration    int64  `json:"idle_duration"`
	TotalDuration   int64  `json:"total_duration"`
	KeystrokesCount int64  `json:"keystrokes_count"`
	FileSwitchCount int64  `json:"file_switch_count"`
}

// Totals are the project-wide sums over every file in a document.
type Totals struct {
	TotalKeystrokesCount int64 `json:"total_keystrokes_count"`
	TotalFileSwitchCount int64 `json:"total_file_switch_count"`
	TotalIdleDuration    int64 `json:"total_idle_duration"`
	TotalAllDuration     int64 `json:"total_all_duration"`
	TotalFocusDuration   int64 `json:"total_focus_duration"`

	// IntegrityWarning is set when idle time exceeded total time and the
	// focus duration was clamped to zero.
	IntegrityWarning bool `json:"integrity_warning,omitempty"`
}

type frame struct {
	node   Node
	parent string
}

// Walk visits every file in doc depth-first in document order. Root files
// are reported with an empty folder path; nested folder names are joined
// with "/".
func Walk(doc Document, fn func(folderPath string, file FileStat)) {
	stack := []frame{{node: doc.Root()}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n := top.node.(type) {
		case FileStat:
			fn(top.parent, n)
		case Folder:
			path := joinPath(top.parent, n.FolderName)
			children := n.Children()
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, frame{node: children[i], parent: path})
			}
		}
	}
}

// Flatten lists every file of doc with its folder path and sums the counters.
func Flatten(doc Document) ([]FlatFile, Totals) {
	files := []FlatFile{}
	var totals Totals

	Walk(doc, func(folderPath string, f FileStat) {
		files = append(files, FlatFile{
			FileName:        f.FileName,
			FolderPath:      folderPath,
			IdleDuration:    f.IdleDuration,
			TotalDuration:   f.TotalDuration,
			KeystrokesCount: f.KeystrokesCount,
			FileSwitchCount: f.FileSwitchCount,
		})
		totals.TotalKeystrokesCount += f.KeystrokesCount
		totals.TotalFileSwitchCount += f.FileSwitchCount
		totals.TotalIdleDuration += f.IdleDuration
		totals.TotalAllDuration += f.TotalDuration
	})

	totals.TotalFocusDuration = totals.TotalAllDuration - totals.TotalIdleDuration
	if totals.TotalFocusDuration < 0 {
		totals.TotalFocusDuration = 0
		totals.IntegrityWarning = true
	}

	return files, totals
}

// joinPath keeps empty folder names below the root, so "src" + "" is "src/".
func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
