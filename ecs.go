package fractal

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"reflect"
	"slices"
	"sync"
)

type EntityId uint64
type archetypeId uint64
type archetypeKey []componentId
type componentId uint32
type set[T comparable] = map[T]struct{}

// Ecs stores components by archetype. Archetypes are visited in creation
// order and rows in insertion order (modulo swap-removes), so queries are
// deterministic.
type Ecs struct {
	archetypes     map[archetypeId]*archetype
	archetypeOrder []archetypeId
	entityIndex    map[EntityId]archetypeId

	idGeneratorLock sync.Mutex
	entityIdCounter EntityId

	componentIdCounterLock sync.Mutex
	componentIdCounter     componentId
	componentTypeIdMap     map[reflect.Type]componentId
	componentIdTypeMap     map[componentId]reflect.Type
}

func MakeEcs() Ecs {
	return Ecs{
		archetypes:         make(map[archetypeId]*archetype),
		entityIndex:        make(map[EntityId]archetypeId),
		componentTypeIdMap: make(map[reflect.Type]componentId),
		componentIdTypeMap: make(map[componentId]reflect.Type),
	}
}

type archetype struct {
	id            archetypeId
	key           archetypeKey
	entities      []EntityId // row -> entity
	rows          map[EntityId]int
	componentData map[componentId]any // typed slices via reflection
}

func (ecs *Ecs) addEntity(components ...any) EntityId {
	return ecs.insertEntity(ecs.nextEntityId(), components...)
}

func (ecs *Ecs) insertEntity(entityId EntityId, components ...any) EntityId {
	archId, arch := ecs.getOrMakeArchetype(ecs.getArchetypeKey(components...))

	row := ecs.appendRow(arch, entityId)
	for _, component := range components {
		ecs.writeComponent(arch, row, component)
	}
	ecs.entityIndex[entityId] = archId

	return entityId
}

func (ecs *Ecs) hasEntity(entityId EntityId) bool {
	_, ok := ecs.entityIndex[entityId]
	return ok
}

func (ecs *Ecs) removeEntity(entityId EntityId) {
	archId, ok := ecs.entityIndex[entityId]
	if !ok {
		return
	}
	ecs.removeRow(ecs.archetypes[archId], entityId)
	delete(ecs.entityIndex, entityId)
}

func (ecs *Ecs) addComponents(entityId EntityId, components ...any) {
	srcArchId, ok := ecs.entityIndex[entityId]
	if !ok {
		return
	}
	srcArch := ecs.archetypes[srcArchId]

	dstKey := combineArchetypeKeys(srcArch.key, ecs.getArchetypeKey(components...))
	dstArchId, dstArch := ecs.getOrMakeArchetype(dstKey)
	if dstArchId == srcArchId {
		row := srcArch.rows[entityId]
		for _, component := range components {
			ecs.writeComponent(srcArch, row, component)
		}
		return
	}

	dstRow := ecs.moveEntity(entityId, srcArch, dstArch)
	for _, component := range components {
		ecs.writeComponent(dstArch, dstRow, component)
	}
	ecs.entityIndex[entityId] = dstArchId
}

func (ecs *Ecs) removeComponents(entityId EntityId, components ...any) {
	srcArchId, ok := ecs.entityIndex[entityId]
	if !ok {
		return
	}
	srcArch := ecs.archetypes[srcArchId]

	removeSet := make(set[componentId])
	for _, c := range components {
		removeSet[ecs.getComponentId(componentType(c))] = struct{}{}
	}

	var dstKey archetypeKey
	for _, compId := range srcArch.key {
		if _, shouldRemove := removeSet[compId]; !shouldRemove {
			dstKey = append(dstKey, compId)
		}
	}
	if len(dstKey) == len(srcArch.key) {
		return
	}

	dstArchId, dstArch := ecs.getOrMakeArchetype(dstKey)
	ecs.moveEntity(entityId, srcArch, dstArch)
	ecs.entityIndex[entityId] = dstArchId
}

// moveEntity copies the components both archetypes share into a fresh row of
// dst and drops the entity from src.
func (ecs *Ecs) moveEntity(entityId EntityId, src *archetype, dst *archetype) int {
	srcRow := src.rows[entityId]
	dstRow := ecs.appendRow(dst, entityId)

	for _, compId := range src.key {
		dstData, ok := dst.componentData[compId]
		if !ok {
			continue
		}
		value := reflect.ValueOf(src.componentData[compId]).Index(srcRow)
		reflect.ValueOf(dstData).Index(dstRow).Set(value)
	}

	ecs.removeRow(src, entityId)
	return dstRow
}

func (ecs *Ecs) appendRow(arch *archetype, entityId EntityId) int {
	row := len(arch.entities)
	for _, compId := range arch.key {
		arch.componentData[compId] = reflect.Append(
			reflect.ValueOf(arch.componentData[compId]),
			reflect.Zero(ecs.componentIdTypeMap[compId]),
		).Interface()
	}
	arch.entities = append(arch.entities, entityId)
	arch.rows[entityId] = row
	return row
}

// removeRow swaps the last row into the removed one.
func (ecs *Ecs) removeRow(arch *archetype, entityId EntityId) {
	row, ok := arch.rows[entityId]
	if !ok {
		return
	}
	last := len(arch.entities) - 1

	for _, compId := range arch.key {
		data := reflect.ValueOf(arch.componentData[compId])
		if row != last {
			data.Index(row).Set(data.Index(last))
		}
		data.Index(last).SetZero()
		arch.componentData[compId] = data.Slice(0, last).Interface()
	}

	if row != last {
		moved := arch.entities[last]
		arch.entities[row] = moved
		arch.rows[moved] = row
	}
	arch.entities = arch.entities[:last]
	delete(arch.rows, entityId)
}

func (ecs *Ecs) writeComponent(dstArch *archetype, dstRow int, component any) {
	value := reflect.ValueOf(component)
	if value.Kind() == reflect.Pointer {
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		panic(fmt.Errorf("expected Component to be a struct or a pointer to a struct, got %s", value.Kind()))
	}

	compId := ecs.getComponentId(value.Type())
	reflect.ValueOf(dstArch.componentData[compId]).Index(dstRow).Set(value)
}

// component returns a pointer into the storage of entityId's component of type t.
func (ecs *Ecs) component(entityId EntityId, t reflect.Type) (reflect.Value, bool) {
	archId, ok := ecs.entityIndex[entityId]
	if !ok {
		return reflect.Value{}, false
	}
	arch := ecs.archetypes[archId]
	data, ok := arch.componentData[ecs.getComponentId(t)]
	if !ok {
		return reflect.Value{}, false
	}
	return reflect.ValueOf(data).Index(arch.rows[entityId]).Addr(), true
}

func (ecs *Ecs) entityIds() []EntityId {
	ids := make([]EntityId, 0, len(ecs.entityIndex))
	for _, archId := range ecs.archetypeOrder {
		ids = append(ids, ecs.archetypes[archId].entities...)
	}
	return ids
}

func (ecs *Ecs) entityCount() int {
	return len(ecs.entityIndex)
}

func (ecs *Ecs) getOrMakeArchetype(key archetypeKey) (archetypeId, *archetype) {
	id := getArchetypeId(key)

	if arch, ok := ecs.archetypes[id]; ok {
		return id, arch
	}

	arch := &archetype{
		id:            id,
		key:           key,
		rows:          make(map[EntityId]int),
		componentData: make(map[componentId]any),
	}
	for _, compId := range arch.key {
		arch.componentData[compId] = reflect.MakeSlice(
			reflect.SliceOf(ecs.componentIdTypeMap[compId]), 0, 1,
		).Interface()
	}

	ecs.archetypes[id] = arch
	ecs.archetypeOrder = append(ecs.archetypeOrder, id)
	return id, arch
}

// The archetype key is the sorted list of component ids; the archetype id is
// its hash.
func (ecs *Ecs) getArchetypeKey(components ...any) archetypeKey {
	var res archetypeKey
	for _, component := range components {
		t := componentType(component)
		if t.Kind() != reflect.Struct {
			panic("component should be a struct")
		}
		res = append(res, ecs.getComponentId(t))
	}
	return dedupAndSortArchetypeKey(res)
}

func componentType(component any) reflect.Type {
	t := reflect.TypeOf(component)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func combineArchetypeKeys(a archetypeKey, b archetypeKey) archetypeKey {
	return dedupAndSortArchetypeKey(append(slices.Clone(a), b...))
}

func dedupAndSortArchetypeKey(key archetypeKey) archetypeKey {
	res := slices.Clone(key)
	slices.Sort(res)
	return slices.Compact(res)
}

func getArchetypeId(key archetypeKey) archetypeId {
	hash := fnv.New64a()
	b := make([]byte, 4)
	for _, compId := range key {
		binary.LittleEndian.PutUint32(b, uint32(compId))
		hash.Write(b)
	}
	return archetypeId(hash.Sum64())
}

func (ecs *Ecs) nextEntityId() EntityId {
	ecs.idGeneratorLock.Lock()
	defer ecs.idGeneratorLock.Unlock()

	id := ecs.entityIdCounter
	ecs.entityIdCounter += 1
	return id
}

func (ecs *Ecs) getComponentId(componentType reflect.Type) componentId {
	ecs.componentIdCounterLock.Lock()
	defer ecs.componentIdCounterLock.Unlock()

	if id, ok := ecs.componentTypeIdMap[componentType]; ok {
		return id
	}
	id := ecs.componentIdCounter
	ecs.componentIdCounter += 1

	ecs.componentTypeIdMap[componentType] = id
	ecs.componentIdTypeMap[id] = componentType
	return id
}
