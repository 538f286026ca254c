// project.go - top-level project document.
//
// A project bundles one instrument bank and any number of authored songs;
// it is the unit the tool opens, edits and exports from.

package main

import (
	"encoding/json"
	"fmt"
	"os"
)

const projectFileVersion = 2

type projectSongEntry struct {
	ID   string       `json:"id"`
	Song AuthoredSong `json:"song"`
}

type projectFile struct {
	Version int                `json:"version"`
	Bank    []bankFileEntry    `json:"bank"`
	Songs   []projectSongEntry `json:"songs"`
}

// Project is the in-memory form of a project file.
type Project struct {
	Bank  *InstrumentBank
	Songs map[string]*AuthoredSong
	order []string
}

// NewProject returns an empty project seeded with the factory instrument
// bank, matching what a new project starts with in the editor.
func NewProject() *Project {
	return &Project{Bank: FactoryInstrumentBank(), Songs: make(map[string]*AuthoredSong)}
}

// AddSong inserts or replaces a song by id, preserving first-insertion
// order for stable save-file diffs.
func (p *Project) AddSong(id string, song *AuthoredSong) {
	if _, exists := p.Songs[id]; !exists {
		p.order = append(p.order, id)
	}
	p.Songs[id] = song
}

// SaveProjectFile writes the project to path as versioned JSON.
func SaveProjectFile(path string, p *Project) error {
	doc := projectFile{Version: projectFileVersion}
	for _, name := range p.Bank.order {
		doc.Bank = append(doc.Bank, bankFileEntry{Name: name, Def: p.Bank.byName[name]})
	}
	for _, id := range p.order {
		doc.Songs = append(doc.Songs, projectSongEntry{ID: id, Song: *p.Songs[id]})
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("project: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadProjectFile reads a versioned project JSON document.
func LoadProjectFile(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("project: read: %w", err)
	}
	var doc projectFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("project: parse: %w", err)
	}
	if doc.Version > projectFileVersion {
		return nil, fmt.Errorf("project: version %d newer than supported %d", doc.Version, projectFileVersion)
	}
	p := NewProject()
	p.Bank = NewInstrumentBank()
	for _, entry := range doc.Bank {
		p.Bank.Add(entry.Name, entry.Def)
	}
	for _, entry := range doc.Songs {
		song := entry.Song
		p.AddSong(entry.ID, &song)
	}
	return p, nil
}

// BankIndexOf resolves an instrument name to the index it would occupy in
// CompileBank's slice, used when compiling authored songs that reference
// instruments by name rather than index.
func (p *Project) BankIndexOf(name string) (int, bool) {
	for i, n := range p.Bank.order {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// CompileBank returns the project's instrument bank flattened into the
// index-addressed slice AuthoredSong.Bank / Song.Bank expect.
func (p *Project) CompileBank() []BgmInstrumentDef {
	out := make([]BgmInstrumentDef, len(p.Bank.order))
	for i, name := range p.Bank.order {
		out[i] = p.Bank.byName[name]
	}
	return out
}
