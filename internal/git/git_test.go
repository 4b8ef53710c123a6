package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/src/p/Box.java b/src/p/Box.java
index 1111111..2222222 100644
--- a/src/p/Box.java
+++ b/src/p/Box.java
@@ -3 +3,2 @@ package p;
-public class Box<T> {
+public class Box<T extends Number>
+    extends Base<T> {
@@ -10,2 +11,0 @@ public class Box<T> {
-    T old;
-    T older;
diff --git a/src/p/Gone.java b/src/p/Gone.java
deleted file mode 100644
index 3333333..0000000
--- a/src/p/Gone.java
+++ /dev/null
@@ -1,3 +0,0 @@
-package p;
-class Gone {}
-
`

func TestParseDiff(t *testing.T) {
	changes, err := parseDiff([]byte(sampleDiff))
	require.NoError(t, err)
	require.Len(t, changes, 2)

	t.Run("Modified file", func(t *testing.T) {
		assert.Equal(t, "src/p/Box.java", changes[0].Path)
		assert.False(t, changes[0].Deleted)
		assert.Equal(t, []int{3, 4, 11}, changes[0].ChangedLines)
	})

	t.Run("Deleted file", func(t *testing.T) {
		assert.Equal(t, "src/p/Gone.java", changes[1].Path)
		assert.True(t, changes[1].Deleted)
	})
}

func TestParseDiff_Empty(t *testing.T) {
	changes, err := parseDiff(nil)
	require.NoError(t, err)
	assert.Empty(t, changes)
}
