package project

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const clusterIDPrefix = "cl_"

// Cluster returns the cluster with id.
func (p *Project) Cluster(id string) (*Cluster, error) {
	for i := range p.Clusters {
		if p.Clusters[i].ID == id {
			return &p.Clusters[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrClusterNotFound, id)
}

// checkClusterName rejects blank names and names already used by another cluster,
// compared case-insensitively.
func (p *Project) checkClusterName(name, exceptID string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: cluster name is required", ErrInvalidInput)
	}
	for _, c := range p.Clusters {
		if c.ID != exceptID && strings.EqualFold(c.Name, name) {
			return "", fmt.Errorf("%w: %q", ErrDuplicateCluster, name)
		}
	}
	return name, nil
}

// AddCluster creates a cluster. Its id derives from the creation time and is bumped
// until unique within the project.
func (p *Project) AddCluster(name, color string, now time.Time) (Cluster, error) {
	name, err := p.checkClusterName(name, "")
	if err != nil {
		return Cluster{}, err
	}
	if strings.TrimSpace(color) == "" {
		color = DefaultClusterColor
	}

	millis := now.UnixMilli()
	id := clusterIDPrefix + strconv.FormatInt(millis, 10)
	for {
		if _, err := p.Cluster(id); err != nil {
			break
		}
		millis++
		id = clusterIDPrefix + strconv.FormatInt(millis, 10)
	}

	c := Cluster{ID: id, Name: name, Color: color}
	p.Clusters = append(p.Clusters, c)
	return c, nil
}

// ClusterUpdate holds the optional changes to a cluster.
type ClusterUpdate struct {
	Name  *string
	Color *string
}

// UpdateCluster renames and/or recolors a cluster.
func (p *Project) UpdateCluster(id string, upd ClusterUpdate) (Cluster, error) {
	c, err := p.Cluster(id)
	if err != nil {
		return Cluster{}, err
	}
	if upd.Name == nil && upd.Color == nil {
		return Cluster{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if upd.Name != nil {
		name, err := p.checkClusterName(*upd.Name, id)
		if err != nil {
			return Cluster{}, err
		}
		c.Name = name
	}
	if upd.Color != nil {
		if strings.TrimSpace(*upd.Color) == "" {
			return Cluster{}, fmt.Errorf("%w: cluster color is required", ErrInvalidInput)
		}
		c.Color = *upd.Color
	}
	return *c, nil
}

// RemoveCluster deletes a cluster and unassigns it from every activity of every month.
// It returns the number of activities unassigned.
func (p *Project) RemoveCluster(id string) (int, error) {
	idx := -1
	for i := range p.Clusters {
		if p.Clusters[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("%w: %s", ErrClusterNotFound, id)
	}
	p.Clusters = append(p.Clusters[:idx], p.Clusters[idx+1:]...)

	unassigned := 0
	for _, r := range p.Reports {
		for hash, rec := range r.Records {
			if rec.ClusterID == id {
				rec.ClusterID = ""
				r.Records[hash] = rec
				unassigned++
			}
		}
	}
	return unassigned, nil
}
