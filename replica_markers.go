package strand

// UpdateMarkers applies a host editor's marker changes for siteID: layers
// present with a nil map are removed entirely, markers mapped to nil are
// removed, and markers mapped to a non-nil range are upserted. Ranges are
// converted to logical anchors against this replica's own document; a
// range that cannot be converted (it lies outside the document) is left
// out of the returned operation. Filing an update in deferredMarkers until
// its anchors' splice arrives only happens for remote updates, in
// applyMarkersUpdate.
func (r *Replica) UpdateMarkers(siteID uint32, updates map[LayerID]map[MarkerID]*ResolvedMarker) MarkersUpdateOperation {
	op := MarkersUpdateOperation{SiteID: siteID, Updates: map[LayerID]map[MarkerID]*LogicalMarker{}}
	for layer, markers := range updates {
		if markers == nil {
			op.Updates[layer] = nil
			r.removeLayer(siteID, layer)
			continue
		}
		layerOut := map[MarkerID]*LogicalMarker{}
		for id, m := range markers {
			if m == nil {
				layerOut[id] = nil
				continue
			}
			lr, err := getLogicalRange(r.docTree, m.Range, m.Exclusive, r.undoCountOf)
			if err != nil {
				continue
			}
			lm := toLogical(*m, lr)
			layerOut[id] = &lm
		}
		op.Updates[layer] = layerOut
	}
	r.applyMarkersUpdate(&op)
	r.operations = append(r.operations, Operation{MarkersUpdate: &op})
	return op
}

// applyMarkersUpdate installs the logical-form updates carried by mu into
// the replica's own marker store, used both for local UpdateMarkers calls
// and for integrating a remote MarkersUpdateOperation.
func (r *Replica) applyMarkersUpdate(mu *MarkersUpdateOperation) {
	for layer, markers := range mu.Updates {
		if markers == nil {
			r.removeLayer(mu.SiteID, layer)
			continue
		}
		layerMap := r.markersForLayer(mu.SiteID, layer)
		for id, lm := range markers {
			key := markerKey{Site: mu.SiteID, Layer: layer, Marker: id}
			if lm == nil {
				delete(layerMap, id)
				delete(r.deferredMarkers, key)
				r.removeFromDeferredDeps(key)
				continue
			}
			if r.anchorsPresent(*lm) {
				layerMap[id] = *lm
				delete(r.deferredMarkers, key)
				r.removeFromDeferredDeps(key)
			} else {
				r.deferredMarkers[key] = lm
				for _, dep := range []SpliceID{lm.Range.Start.SpliceID, lm.Range.End.SpliceID} {
					k := spliceKey(dep)
					r.deferredMarkerDeps[k] = append(r.deferredMarkerDeps[k], key)
				}
			}
		}
	}
}

func (r *Replica) removeLayer(siteID uint32, layer LayerID) {
	if layers := r.markers[siteID]; layers != nil {
		delete(layers, layer)
	}
	for key, lm := range r.deferredMarkers {
		if key.Site == siteID && key.Layer == layer {
			delete(r.deferredMarkers, key)
			r.removeFromDeferredDeps(key)
			_ = lm
		}
	}
}

func (r *Replica) removeFromDeferredDeps(key markerKey) {
	for k, keys := range r.deferredMarkerDeps {
		out := keys[:0]
		for _, existing := range keys {
			if existing != key {
				out = append(out, existing)
			}
		}
		if len(out) == 0 {
			delete(r.deferredMarkerDeps, k)
		} else {
			r.deferredMarkerDeps[k] = out
		}
	}
}

// anchorsPresent reports whether both ends of a logical marker's range
// name a splice this replica has already integrated.
func (r *Replica) anchorsPresent(lm LogicalMarker) bool {
	if _, ok := r.rootFor(lm.Range.Start.SpliceID); !ok {
		return false
	}
	if _, ok := r.rootFor(lm.Range.End.SpliceID); !ok {
		return false
	}
	return true
}

// recheckDeferredMarkers re-evaluates every marker deferred on spliceID
// now that it has integrated, promoting any that are now resolvable and
// returning the resolved state for the caller's DocumentStateUpdate.
func (r *Replica) recheckDeferredMarkers(spliceID SpliceID) map[uint32]map[LayerID]map[MarkerID]*ResolvedMarker {
	keys := r.deferredMarkerDeps[spliceKey(spliceID)]
	if len(keys) == 0 {
		return nil
	}
	delete(r.deferredMarkerDeps, spliceKey(spliceID))

	result := map[uint32]map[LayerID]map[MarkerID]*ResolvedMarker{}
	for _, key := range keys {
		lm, ok := r.deferredMarkers[key]
		if !ok {
			continue
		}
		if !r.anchorsPresent(*lm) {
			continue
		}
		delete(r.deferredMarkers, key)
		r.markersForLayer(key.Site, key.Layer)[key.Marker] = *lm

		rm, err := r.resolveMarker(*lm)
		if err != nil {
			continue
		}
		if result[key.Site] == nil {
			result[key.Site] = map[LayerID]map[MarkerID]*ResolvedMarker{}
		}
		if result[key.Site][key.Layer] == nil {
			result[key.Site][key.Layer] = map[MarkerID]*ResolvedMarker{}
		}
		result[key.Site][key.Layer][key.Marker] = &rm
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func (r *Replica) integrateMarkersUpdate(mu *MarkersUpdateOperation) (DocumentStateUpdate, []Operation, error) {
	r.applyMarkersUpdate(mu)
	r.operations = append(r.operations, Operation{MarkersUpdate: mu})

	resolved := map[LayerID]map[MarkerID]*ResolvedMarker{}
	for layer, markers := range mu.Updates {
		if markers == nil {
			continue
		}
		out := map[MarkerID]*ResolvedMarker{}
		for id, lm := range markers {
			if lm == nil {
				out[id] = nil
				continue
			}
			key := markerKey{Site: mu.SiteID, Layer: layer, Marker: id}
			if _, deferred := r.deferredMarkers[key]; deferred {
				continue
			}
			rm, err := r.resolveMarker(*lm)
			if err != nil {
				continue
			}
			out[id] = &rm
		}
		resolved[layer] = out
	}

	update := DocumentStateUpdate{}
	if len(resolved) > 0 {
		update.MarkerUpdates = map[uint32]map[LayerID]map[MarkerID]*ResolvedMarker{mu.SiteID: resolved}
	}
	return update, nil, nil
}

func (r *Replica) resolveMarker(lm LogicalMarker) (ResolvedMarker, error) {
	rng, err := resolveLogicalRange(r.docTree, r.splitTree, r.rootFor, lm.Range, lm.Exclusive, r.undoCountOf)
	if err != nil {
		return ResolvedMarker{}, err
	}
	return toResolved(lm, rng), nil
}

// GetMarkers resolves every site's marker state to linear form.
func (r *Replica) GetMarkers() map[uint32]map[LayerID]map[MarkerID]ResolvedMarker {
	result := map[uint32]map[LayerID]map[MarkerID]ResolvedMarker{}
	for site, layers := range r.markers {
		layerOut := map[LayerID]map[MarkerID]ResolvedMarker{}
		for layer, markers := range layers {
			markerOut := map[MarkerID]ResolvedMarker{}
			for id, lm := range markers {
				rm, err := r.resolveMarker(lm)
				if err != nil {
					continue
				}
				markerOut[id] = rm
			}
			layerOut[layer] = markerOut
		}
		result[site] = layerOut
	}
	return result
}

func (r *Replica) markersFor(siteID uint32) map[LayerID]map[MarkerID]LogicalMarker {
	m := r.markers[siteID]
	if m == nil {
		m = map[LayerID]map[MarkerID]LogicalMarker{}
		r.markers[siteID] = m
	}
	return m
}

func (r *Replica) markersForLayer(siteID uint32, layer LayerID) map[MarkerID]LogicalMarker {
	layers := r.markersFor(siteID)
	l := layers[layer]
	if l == nil {
		l = map[MarkerID]LogicalMarker{}
		layers[layer] = l
	}
	return l
}
