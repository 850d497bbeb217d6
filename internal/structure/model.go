package structure

// Document is the decrypted project structure reported by the editor.
type Document struct {
	ProjectName string     `json:"project_name"`
	Folders     []Folder   `json:"folders"`
	Files       []FileStat `json:"files"`
}

// Folder is a directory node holding files and nested folders.
type Folder struct {
	FolderName string     `json:"folder_name"`
	Folders    []Folder   `json:"folders"`
	Files      []FileStat `json:"files"`
}

// FileStat holds the per-file counters. Durations are in seconds.
type FileStat struct {
	FileName        string `json:"file_name"`
	IdleDuration    int64  `json:"idle_duration"`
	TotalDuration   int64  `json:"total_duration"`
	KeystrokesCount int64  `json:"keystrokes_count"`
	FileSwitchCount int64  `json:"file_switch_count"`
}

// Node is a tree element: either a Folder or a FileStat.
type Node interface {
	isNode()
}

func (Folder) isNode()   {}
func (FileStat) isNode() {}

// Children returns the direct children of f, files first, then sub-folders,
// each group in document order.
func (f Folder) Children() []Node {
	nodes := make([]Node, 0, len(f.Files)+len(f.Folders))
	for _, file := range f.Files {
		nodes = append(nodes, file)
	}
	for _, sub := range f.Folders {
		nodes = append(nodes, sub)
	}
	return nodes
}

// Root returns the document as an unnamed folder.
func (d Document) Root() Folder {
	return Folder{Folders: d.Folders, Files: d.Files}
}

// Default returns the structure stored for a project created without one.
func Default(projectPath string) Document {
	return Document{ProjectName: projectPath, Folders: []Folder{}}
}
