package dto

type TileRequest struct {
	Layer string `uri:"layer" validate:"required,oneof=cpu-elevation cpu-normals"`
	Tree  uint32 `uri:"tree"`
	LOD   uint32 `uri:"lod" validate:"lte=30"`
	X     uint32 `uri:"x"`
	Y     uint32 `uri:"y"`
}
