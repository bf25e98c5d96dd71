package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Ключи детерминированы от (владелец, вид ресурса, id или отпечаток
// фильтра), владелец зашит в каждый ключ.

func TaskKey(owner, taskID uuid.UUID) string {
	return fmt.Sprintf("tasks:%s:task:%s", owner, taskID)
}

func ListKey(owner uuid.UUID, fingerprint string) string {
	return fmt.Sprintf("tasks:%s:list:%s", owner, fingerprint)
}

// OwnerListPattern покрывает все списочные ключи владельца — при
// мутации они инвалидируются целиком, пространство фильтров не
// перечислить.
func OwnerListPattern(owner uuid.UUID) string {
	return fmt.Sprintf("tasks:%s:list:*", owner)
}

func TaskKeyPattern(owner uuid.UUID) string {
	return fmt.Sprintf("tasks:%s:*", owner)
}

// Fingerprint — SHA-256 от канонического JSON спецификации. Порядок
// полей структуры фиксирован, поэтому одинаковые спецификации дают
// одинаковый отпечаток, а коллизии между разными практически исключены.
func Fingerprint(spec any) string {
	data, err := json.Marshal(spec)
	if err != nil {
		// json.Marshal на наших структурах не падает; если вдруг —
		// пусть это будет отдельный ключ, а не общий
		return "unmarshalable"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
