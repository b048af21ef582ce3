package taxonomy

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/navigator1103/MediaIntel-sub006/pkg/errors"
)

// document is the on-disk YAML form of a snapshot. Seed files may carry any
// subset of the sections; a combined master file carries all four.
type document struct {
	Version       int64          `yaml:"version,omitempty"`
	BusinessUnits []BusinessUnit `yaml:"business_units,omitempty"`
	Categories    []Category     `yaml:"categories,omitempty"`
	Ranges        []Range        `yaml:"ranges,omitempty"`
	Campaigns     []Campaign     `yaml:"campaigns,omitempty"`
}

// LoadFile loads a snapshot from a single combined YAML document.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return parseDocument(data, path)
}

// LoadDir loads a snapshot from every .yaml file in a directory. Files are
// merged in lexical order; later definitions of the same folded name win.
func LoadDir(dir string) (*Snapshot, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.WrapIO("stat", dir, err)
	}
	return LoadFS(os.DirFS(dir))
}

// LoadFS loads a snapshot from every .yaml file in the filesystem root.
func LoadFS(fsys fs.FS) (*Snapshot, error) {
	snapshot := NewSnapshot()

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.WrapIO("read", ".", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, errors.WrapIO("read", entry.Name(), err)
		}

		part, err := parseDocument(data, entry.Name())
		if err != nil {
			return nil, err
		}
		mergeSnapshot(snapshot, part)
	}

	return snapshot, nil
}

// SaveFile writes the snapshot as a single combined YAML document. The write
// goes through a temp file and rename so a crash never leaves a truncated
// master file.
func SaveFile(snapshot *Snapshot, path string) error {
	doc := document{Version: snapshot.version}
	for _, unit := range snapshot.businessUnits.List() {
		doc.BusinessUnits = append(doc.BusinessUnits, *unit)
	}
	for _, cat := range snapshot.categories.List() {
		doc.Categories = append(doc.Categories, *cat)
	}
	for _, rng := range snapshot.ranges.List() {
		doc.Ranges = append(doc.Ranges, *rng)
	}
	for _, campaign := range snapshot.campaigns.List() {
		doc.Campaigns = append(doc.Campaigns, *campaign)
	}

	data, err := yaml.MarshalWithOptions(&doc,
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapIO("create", filepath.Dir(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.WrapIO("write", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.WrapIO("rename", path, err)
	}
	return nil
}

func parseDocument(data []byte, name string) (*Snapshot, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse("yaml", name, err)
	}

	snapshot := NewSnapshot()
	snapshot.version = doc.Version

	for i := range doc.BusinessUnits {
		unit := DeepCopyBusinessUnit(doc.BusinessUnits[i])
		_ = snapshot.businessUnits.Set(&unit)
	}
	for i := range doc.Categories {
		cat := DeepCopyCategory(doc.Categories[i])
		_ = snapshot.categories.Set(&cat)
	}
	for i := range doc.Ranges {
		rng := DeepCopyRange(doc.Ranges[i])
		if rng.Status == "" {
			rng.Status = StatusActive
		}
		_ = snapshot.ranges.Set(&rng)
	}
	for i := range doc.Campaigns {
		campaign := DeepCopyCampaign(doc.Campaigns[i])
		if campaign.Status == "" {
			campaign.Status = StatusActive
		}
		_ = snapshot.campaigns.Set(&campaign)
	}

	return snapshot, nil
}

func mergeSnapshot(dst, src *Snapshot) {
	for _, unit := range src.businessUnits.List() {
		_ = dst.businessUnits.Set(unit)
	}
	for _, cat := range src.categories.List() {
		_ = dst.categories.Set(cat)
	}
	for _, rng := range src.ranges.List() {
		_ = dst.ranges.Set(rng)
	}
	for _, campaign := range src.campaigns.List() {
		_ = dst.campaigns.Set(campaign)
	}
	if src.version > dst.version {
		dst.version = src.version
	}
}
