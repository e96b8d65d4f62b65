package fractal

import (
	"reflect"
)

// Queries visit every entity that has all of the query's component types and
// none of the excluded ones. Returning false from the callback stops the walk.
type Query1[A any] struct {
	ecs     *Ecs
	without []any
}
type Query2[A, B any] struct {
	ecs     *Ecs
	without []any
}
type Query3[A, B, C any] struct {
	ecs     *Ecs
	without []any
}

func MakeQuery1[A any](cmd *Commands) Query1[A]       { return Query1[A]{ecs: cmd.app.ecs} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B] { return Query2[A, B]{ecs: cmd.app.ecs} }
func MakeQuery3[A, B, C any](cmd *Commands) Query3[A, B, C] {
	return Query3[A, B, C]{ecs: cmd.app.ecs}
}

// WithoutTypes skips entities carrying any of the given component types.
func (q Query1[A]) WithoutTypes(components ...any) Query1[A] {
	q.without = append(q.without[:len(q.without):len(q.without)], components...)
	return q
}

func (q Query2[A, B]) WithoutTypes(components ...any) Query2[A, B] {
	q.without = append(q.without[:len(q.without):len(q.without)], components...)
	return q
}

func (q Query3[A, B, C]) WithoutTypes(components ...any) Query3[A, B, C] {
	q.without = append(q.without[:len(q.without):len(q.without)], components...)
	return q
}

func (q Query1[A]) Map(m func(EntityId, *A) bool) {
	id1 := identifyComponent[A](q.ecs)

	for _, arch := range q.ecs.matchingArchetypes([]componentId{id1}, q.without) {
		comps1 := arch.componentData[id1].([]A)
		for row, entityId := range arch.entities {
			if !m(entityId, &comps1[row]) {
				return
			}
		}
	}
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool) {
	id1, id2 := identifyComponent[A](q.ecs), identifyComponent[B](q.ecs)

	for _, arch := range q.ecs.matchingArchetypes([]componentId{id1, id2}, q.without) {
		comps1 := arch.componentData[id1].([]A)
		comps2 := arch.componentData[id2].([]B)
		for row, entityId := range arch.entities {
			if !m(entityId, &comps1[row], &comps2[row]) {
				return
			}
		}
	}
}

func (q Query3[A, B, C]) Map(m func(EntityId, *A, *B, *C) bool) {
	id1, id2, id3 := identifyComponent[A](q.ecs), identifyComponent[B](q.ecs), identifyComponent[C](q.ecs)

	for _, arch := range q.ecs.matchingArchetypes([]componentId{id1, id2, id3}, q.without) {
		comps1 := arch.componentData[id1].([]A)
		comps2 := arch.componentData[id2].([]B)
		comps3 := arch.componentData[id3].([]C)
		for row, entityId := range arch.entities {
			if !m(entityId, &comps1[row], &comps2[row], &comps3[row]) {
				return
			}
		}
	}
}

// Count returns the number of entities the query matches.
func (q Query1[A]) Count() int {
	n := 0
	for _, arch := range q.ecs.matchingArchetypes([]componentId{identifyComponent[A](q.ecs)}, q.without) {
		n += len(arch.entities)
	}
	return n
}

func (ecs *Ecs) matchingArchetypes(required []componentId, without []any) []*archetype {
	excluded := make(set[componentId], len(without))
	for _, c := range without {
		excluded[ecs.getComponentId(componentType(c))] = struct{}{}
	}

	var res []*archetype
ArchLoop:
	for _, archId := range ecs.archetypeOrder {
		arch := ecs.archetypes[archId]
		if len(arch.entities) == 0 {
			continue
		}
		for _, id := range required {
			if _, ok := arch.componentData[id]; !ok {
				continue ArchLoop
			}
		}
		for _, id := range arch.key {
			if _, ok := excluded[id]; ok {
				continue ArchLoop
			}
		}
		res = append(res, arch)
	}
	return res
}

func identifyComponent[A any](ecs *Ecs) componentId {
	return ecs.getComponentId(reflect.TypeFor[A]())
}

// Get returns a pointer to entityId's component of type T.
func Get[T any](cmd *Commands, entityId EntityId) (*T, bool) {
	value, ok := cmd.app.ecs.component(entityId, reflect.TypeFor[T]())
	if !ok {
		return nil, false
	}
	return value.Interface().(*T), true
}
